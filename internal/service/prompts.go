package service

import (
	"fmt"
	"strings"
)

// 旁白生成模板。三种内容来源各一套:书籍解读、话题展开、用户内容提炼。
// 输出统一为 {"narrations": [...]} 的 JSON 对象。

const bookNarrationPrompt = `# 角色定位
你是一位专业的书籍解读专家，擅长用深入浅出的方式讲解书籍核心内容，帮助观众快速理解一本书的精华。

# 核心任务
为书籍《%s》创作 %d 个书籍解读分镜，每个分镜包含一段旁白（用于TTS生成视频讲解音频），像在跟朋友推荐书籍一样，自然、有价值、引发共鸣。

# 旁白规范
- 字数限制：严格控制在%d~%d个字（最低不少于%d字）
- 结尾格式：结尾不要使用标点符号
- 内容要求：提炼书籍的核心观点，用通俗易懂的语言讲解，每个分镜传递一个有价值的洞察
- 风格要求：像跟朋友聊天一样，通俗、真诚、有启发性，避免学术化和生硬的表达
- 开场建议：第一个分镜用提问、场景、痛点等方式引发共鸣，吸引观众注意
- 结尾建议：最后一个分镜给出行动建议或启发，让观众有收获感
- 禁止项：不出现网址、表情符号、数字编号、不说空话套话、不过度煽情

# 分镜连贯性要求
- %d 个分镜应围绕这本书的核心内容展开，形成完整的书籍解读
- 遵循"吸引注意 → 提炼观点 → 深入讲解 → 给出启发"的叙述逻辑
- 每个分镜像同一个人在连贯分享读书心得，语气一致、自然流畅

# 输出格式
严格按照以下JSON格式输出，不要添加任何额外的文字说明：

` + "```json" + `
{
  "narrations": [
    "第一段旁白",
    "第二段旁白"
  ]
}
` + "```" + `

只输出JSON，不要其他内容。`

const topicNarrationPrompt = `# 角色定位
你是一位专业的内容创作专家，擅长将话题扩展成引人入胜的短视频脚本，用深入浅出的方式讲解观点。

# 核心任务
为下面的话题创作 %d 个视频分镜，每个分镜包含一段旁白（用于TTS生成视频讲解音频），像在跟朋友聊天一样，自然、有价值、引发共鸣。

# 输入话题
%s

# 旁白规范
- 字数限制：严格控制在%d~%d个字（最低不少于%d字）
- 结尾格式：结尾不要使用标点符号
- 内容要求：围绕话题展开，每个分镜传递一个有价值的观点或洞察
- 风格要求：像跟朋友聊天一样，通俗、真诚、有启发性，避免学术化和生硬的表达
- 开场建议：第一个分镜用提问、场景、痛点等方式引发共鸣
- 结尾建议：最后一个分镜给出行动建议或启发
- 禁止项：不出现网址、表情符号、数字编号、不说空话套话

# 分镜连贯性要求
- %d 个分镜应围绕话题展开，形成完整的观点表达
- 遵循"吸引注意 → 提出观点 → 深入讲解 → 给出启发"的叙述逻辑
- 每个分镜像同一个人在连贯分享观点，语气一致、自然流畅

# 输出格式
严格按照以下JSON格式输出，不要添加任何额外的文字说明：

` + "```json" + `
{
  "narrations": [
    "第一段旁白",
    "第二段旁白"
  ]
}
` + "```" + `

只输出JSON，不要其他内容。`

const contentNarrationPrompt = `# 角色定位
你是一位专业的内容提炼专家，擅长从用户提供的内容中提取核心要点，并转化成适合短视频的脚本。

# 核心任务
从下面的内容中提炼出 %d 个视频分镜的旁白（用于TTS生成视频音频）。

# 用户提供的内容
%s

# 旁白规范
- 字数限制：严格控制在%d~%d个字（最低不少于%d字）
- 结尾格式：结尾不要使用标点符号
- 提炼策略：内容较长时提取核心要点去除冗余；内容较短时在保留核心观点的基础上适当扩展
- 风格要求：保持用户内容的核心观点，但用更口语化、适合TTS的方式表达
- 禁止项：不出现网址、表情符号、数字编号、不说空话套话

# 分镜连贯性要求
- 必须输出恰好 %d 个分镜的旁白
- 内容要忠于用户原意，但优化为更适合口播的表达
- 保持逻辑连贯，自然过渡

# 输出格式
严格按照以下JSON格式输出，不要添加任何额外的文字说明：

` + "```json" + `
{
  "narrations": [
    "第一段旁白",
    "第二段旁白"
  ]
}
` + "```" + `

只输出JSON，不要其他内容。`

const imagePromptPrompt = `# 角色定位
你是一位专业的视觉设计师，擅长把旁白文案转化为文生图模型能理解的画面描述。

# 核心任务
为下面 %d 段旁白逐段生成对应的英文画面描述（image prompt），用于文生图模型生成分镜配图。

# 旁白列表
%s

# 画面描述规范
- 语言：英文
- 字数：每条控制在%d~%d个英文单词
- 内容：描述具体的画面场景、主体、构图与氛围，与对应旁白的含义呼应
- 只描述画面本身，不包含艺术风格词（风格由系统统一追加）
- 不出现文字、字幕、logo 等元素描述

# 输出格式
严格按照以下JSON格式输出，数组长度必须为 %d，顺序与旁白一一对应：

` + "```json" + `
{
  "image_prompts": [
    "first scene description",
    "second scene description"
  ]
}
` + "```" + `

只输出JSON，不要其他内容。`

const titleFromContentPrompt = `请为以下内容生成一个简短、有吸引力的标题（10字以内）。

内容：
%s

要求：
1. 简短精炼，10字以内
2. 准确概括核心内容
3. 有吸引力，适合作为视频标题
4. 只输出标题文本，不要其他内容

标题：`

const styleConvertPrompt = `Convert this style description into a detailed image generation prompt for Stable Diffusion/FLUX:

Style Description: %s

Requirements:
- Focus on visual elements, colors, lighting, mood, atmosphere
- Be specific and detailed
- Use professional photography/art terminology
- Output ONLY the prompt in English (no explanations)
- Keep it under 100 words
- Use comma-separated descriptive phrases

Image Prompt:`

const bookInfoPrompt = `请为书籍《%s》%s生成详细的书籍信息。

要求：
1. 如果你知道这本书，请提供真实准确的信息
2. 如果不确定，请基于书名和作者推测合理的信息
3. 严格按照JSON格式输出，不要添加任何其他内容

输出格式（JSON）：
{
    "title": "书名",
    "author": "作者",
    "summary": "书籍简介（100-200字，概括核心内容和价值）",
    "genre": "书籍类型（如：自我成长、商业管理、心理学等）",
    "publication_year": "2018",
    "key_points": [
        "核心观点1（20-30字）",
        "核心观点2（20-30字）",
        "核心观点3（20-30字）"
    ]
}

只输出JSON，不要其他内容。`

func buildBookNarrationPrompt(bookLabel string, n, minWords, maxWords int) string {
	return fmt.Sprintf(bookNarrationPrompt, bookLabel, n, minWords, maxWords, minWords, n)
}

func buildTopicNarrationPrompt(topic string, n, minWords, maxWords int) string {
	return fmt.Sprintf(topicNarrationPrompt, n, topic, minWords, maxWords, minWords, n)
}

func buildContentNarrationPrompt(content string, n, minWords, maxWords int) string {
	return fmt.Sprintf(contentNarrationPrompt, n, content, minWords, maxWords, minWords, n)
}

func buildImagePromptPrompt(narrations []string, minWords, maxWords int) string {
	var sb strings.Builder
	for i, n := range narrations {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, n)
	}
	return fmt.Sprintf(imagePromptPrompt, len(narrations), sb.String(), minWords, maxWords, len(narrations))
}

func buildTitleFromContentPrompt(content string) string {
	// 只取前 500 个字符,避免 prompt 过长
	runes := []rune(content)
	if len(runes) > 500 {
		content = string(runes[:500])
	}
	return fmt.Sprintf(titleFromContentPrompt, content)
}

func buildStyleConvertPrompt(description string) string {
	return fmt.Sprintf(styleConvertPrompt, description)
}

func buildBookInfoPrompt(bookName, author string) string {
	authorInfo := ""
	if author != "" {
		authorInfo = fmt.Sprintf("，作者是%s", author)
	}
	return fmt.Sprintf(bookInfoPrompt, bookName, authorInfo)
}
