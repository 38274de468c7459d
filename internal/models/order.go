package models

import (
	"time"
)

// OrderStatus is the fulfillment state of a redemption order. The reachable
// transitions are defined by NextStatus; anything else is rejected.
type OrderStatus string

const (
	OrderPending     OrderStatus = "pending"
	OrderKycPending  OrderStatus = "kyc_pending"
	OrderKycRejected OrderStatus = "kyc_rejected"
	OrderApproved    OrderStatus = "approved"
	OrderPacked      OrderStatus = "packed"
	OrderDispatched  OrderStatus = "dispatched"
	OrderDelivered   OrderStatus = "delivered"
	OrderCancelled   OrderStatus = "cancelled"
)

// TransitionAction is an admin trigger against a redemption order.
type TransitionAction string

const (
	ActionApprove    TransitionAction = "approve"
	ActionRequestKyc TransitionAction = "request_kyc"
	ActionRejectKyc  TransitionAction = "reject_kyc"
	ActionPack       TransitionAction = "pack"
	ActionDispatch   TransitionAction = "dispatch"
	ActionDeliver    TransitionAction = "deliver"
	ActionCancel     TransitionAction = "cancel"
)

// transitions is the closed status machine:
// pending -> {kyc_pending -> {kyc_rejected, approved} | approved} ->
// packed -> dispatched -> delivered; cancel from any non-terminal state.
var transitions = map[OrderStatus]map[TransitionAction]OrderStatus{
	OrderPending: {
		ActionApprove:    OrderApproved,
		ActionRequestKyc: OrderKycPending,
		ActionCancel:     OrderCancelled,
	},
	OrderKycPending: {
		ActionApprove:   OrderApproved,
		ActionRejectKyc: OrderKycRejected,
		ActionCancel:    OrderCancelled,
	},
	OrderApproved: {
		ActionPack:   OrderPacked,
		ActionCancel: OrderCancelled,
	},
	OrderPacked: {
		ActionDispatch: OrderDispatched,
		ActionCancel:   OrderCancelled,
	},
	OrderDispatched: {
		ActionDeliver: OrderDelivered,
		ActionCancel:  OrderCancelled,
	},
}

// NextStatus resolves an action against the current status. ok is false when
// the transition is not in the table, including any action on a terminal state.
func NextStatus(current OrderStatus, action TransitionAction) (OrderStatus, bool) {
	next, ok := transitions[current][action]
	return next, ok
}

// Terminal reports whether no further transitions exist from s.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// ShippingSnapshot is the delivery address captured at redemption time. It is
// frozen on the order; later profile edits do not touch it.
type ShippingSnapshot struct {
	Name        string `json:"name" db:"shipping_name" validate:"required"`
	AddressLine string `json:"addressLine" db:"shipping_address" validate:"required"`
	City        string `json:"city" db:"shipping_city" validate:"required"`
	State       string `json:"state" db:"shipping_state" validate:"required"`
	Pincode     string `json:"pincode" db:"shipping_pincode" validate:"required"`
}

type RedemptionOrder struct {
	ID            string           `json:"id" db:"id"`
	AccountID     string           `json:"accountId" db:"account_id"`
	CatalogItemID string           `json:"catalogItemId" db:"catalog_item_id"`
	PointsUsed    int64            `json:"pointsUsed" db:"points_used"`
	Shipping      ShippingSnapshot `json:"shipping"`
	Status        OrderStatus      `json:"status" db:"status"`
	CourierName   string           `json:"courierName,omitempty" db:"courier_name"`
	TrackingID    string           `json:"trackingId,omitempty" db:"tracking_id"`
	AdminRemark   string           `json:"adminRemark,omitempty" db:"admin_remark"`
	DispatchedAt  *time.Time       `json:"dispatchedAt,omitempty" db:"dispatched_at"`
	DeliveredAt   *time.Time       `json:"deliveredAt,omitempty" db:"delivered_at"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
}
