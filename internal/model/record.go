package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoryboardRecord 已完成任务的持久化记录
type StoryboardRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	SourceType     string             `bson:"source_type" json:"source_type"`
	Source         string             `bson:"source" json:"source"`
	FrameCount     int                `bson:"frame_count" json:"frame_count"`
	TotalDuration  float64            `bson:"total_duration" json:"total_duration"`
	FinalVideoPath string             `bson:"final_video_path" json:"final_video_path"`
	VideoURL       string             `bson:"video_url,omitempty" json:"video_url,omitempty"`
	Storyboard     *Storyboard        `bson:"storyboard,omitempty" json:"storyboard,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Collection 返回集合名
func (StoryboardRecord) Collection() string {
	return "storyboard_records"
}
