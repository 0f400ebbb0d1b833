package model

// 进度事件类型
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// ProgressEvent 生成过程中的进度事件
type ProgressEvent struct {
	EventType string `json:"event_type"`
	// Progress 整体进度 [0,1],保证单调不减
	Progress     float64 `json:"progress"`
	FrameCurrent int     `json:"frame_current,omitempty"`
	FrameTotal   int     `json:"frame_total,omitempty"`
	// Step 当前阶段标识,如 title / narration / frame / concat
	Step   string `json:"step,omitempty"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ProgressFunc 进度回调,nil 表示不关心进度
type ProgressFunc func(ProgressEvent)

// Emit 安全触发回调
func (f ProgressFunc) Emit(e ProgressEvent) {
	if f != nil {
		f(e)
	}
}
