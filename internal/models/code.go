package models

import (
	"fmt"
	"time"
)

// CodeState is the lifecycle state of a scratch code. Consumed is terminal;
// a code never moves out of it.
type CodeState string

const (
	CodeInactive CodeState = "INACTIVE"
	CodeActive   CodeState = "ACTIVE"
	CodeConsumed CodeState = "CONSUMED"
)

type Code struct {
	Serial     int64      `json:"serial" db:"serial"`
	Secret     string     `json:"secret" db:"secret"`
	PointValue int64      `json:"pointValue" db:"point_value"`
	State      CodeState  `json:"state" db:"state"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty" db:"consumed_at"`
	ConsumedBy string     `json:"consumedBy,omitempty" db:"consumed_by"`
}

// QRText is the payload printed into the QR image on the physical voucher.
func (c *Code) QRText() string {
	return fmt.Sprintf("serial=%d|points=%d|code=%s", c.Serial, c.PointValue, c.Secret)
}

// CodeBatch records one issuance run of contiguous serials.
type CodeBatch struct {
	ID          int64     `json:"id" db:"id"`
	StartSerial int64     `json:"startSerial" db:"start_serial"`
	EndSerial   int64     `json:"endSerial" db:"end_serial"`
	PointValue  int64     `json:"pointValue" db:"point_value"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// CodeStats is the per-state code count breakdown for the admin dashboard.
type CodeStats struct {
	Inactive int64 `json:"inactive"`
	Active   int64 `json:"active"`
	Consumed int64 `json:"consumed"`
}
