package domain

// Point transaction types. Stored as strings on point_transactions.transaction_type.
const (
	TxRegister        = "register"
	TxLogin           = "login"
	TxTask            = "task"
	TxPurchase        = "purchase"
	TxRefund          = "refund"
	TxAdminAdjust     = "admin_adjust"
	TxGift            = "gift"
	TxActivity        = "activity"
	TxImageGeneration = "image_generation"
	TxChat            = "chat"
	TxPaymentReward   = "payment_reward"
)

// Order statuses.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
	OrderRefunded  = "refunded"
	OrderClosed    = "closed"
)

// Alipay trade statuses reported in async notifications.
const (
	TradeSuccess  = "TRADE_SUCCESS"
	TradeFinished = "TRADE_FINISHED"
	TradeClosed   = "TRADE_CLOSED"
)

// NotifyTypeTradeStatusSync is the only notify_type the settlement coordinator accepts.
const NotifyTypeTradeStatusSync = "trade_status_sync"
