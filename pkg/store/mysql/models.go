package mysql

import "time"

// RequestRecord archived terminal outcome of one processing request
type RequestRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID   string    `gorm:"column:request_id;type:varchar(64);not null;uniqueIndex:idx_request_id_unique" json:"request_id"`
	Algorithm   string    `gorm:"column:algorithm;type:varchar(64);not null;index:idx_algorithm" json:"algorithm"`
	State       string    `gorm:"column:state;type:varchar(20);not null;index:idx_state" json:"state"`
	ResultKey   string    `gorm:"column:result_key;type:varchar(255)" json:"result_key"`
	Error       string    `gorm:"column:error;type:text" json:"error"`
	DurationMs  float64   `gorm:"column:duration_ms;type:double;not null;default:0" json:"duration_ms"`
	CompletedAt time.Time `gorm:"column:completed_at;type:datetime(3);not null;index:idx_completed_at" json:"completed_at"`
}

// TableName specifies the table name for RequestRecord
func (RequestRecord) TableName() string {
	return "request_records"
}

// ScalingEventRecord archived scaling decision
type ScalingEventRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Target        string    `gorm:"column:target;type:varchar(20);not null;index:idx_target_timestamp,priority:1" json:"target"`
	Algorithm     string    `gorm:"column:algorithm;type:varchar(64)" json:"algorithm"`
	Direction     string    `gorm:"column:direction;type:varchar(10);not null" json:"direction"`
	FromInstances int       `gorm:"column:from_instances;type:int;not null" json:"from_instances"`
	ToInstances   int       `gorm:"column:to_instances;type:int;not null" json:"to_instances"`
	Reason        string    `gorm:"column:reason;type:text;not null" json:"reason"`
	Timestamp     time.Time `gorm:"column:timestamp;type:datetime(3);not null;index:idx_target_timestamp,priority:2" json:"timestamp"`
}

// TableName specifies the table name for ScalingEventRecord
func (ScalingEventRecord) TableName() string {
	return "scaling_event_records"
}
