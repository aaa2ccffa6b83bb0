package model

import "gorm.io/datatypes"

// QueryLogModel maps to 'query_log': one row per answered question.
type QueryLogModel struct {
	ID         int64          `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID  string         `gorm:"column:session_id;index"`
	TraceID    string         `gorm:"column:trace_id;uniqueIndex"`
	Question   string         `gorm:"column:question"`
	Statement  string         `gorm:"column:statement"`
	Accepted   bool           `gorm:"column:accepted"`
	Reason     string         `gorm:"column:reason"`
	Kind       string         `gorm:"column:kind"`
	RowCount   int            `gorm:"column:row_count"`
	ChartType  string         `gorm:"column:chart_type"`
	Coercions  datatypes.JSON `gorm:"column:coercions"`
	Error      string         `gorm:"column:error"`
	DurationMs int64          `gorm:"column:duration_ms"`
	CreatedAt  int64          `gorm:"column:created_at;index"`
}

func (QueryLogModel) TableName() string { return "query_log" }
