package models

// DeliveryChannel names where a payload ended up
type DeliveryChannel string

const (
	ChannelDirect DeliveryChannel = "direct"
	ChannelRelay  DeliveryChannel = "relay"
	ChannelLocal  DeliveryChannel = "local"
	ChannelFailed DeliveryChannel = "failed"
)

// DeliveryOutcome reports how one payload was delivered
type DeliveryOutcome struct {
	SessionID string
	Seq       int
	URL       string
	Channel   DeliveryChannel
	Paths     []string
	Err       error
}

// Delivered reports whether the payload reached any sink
func (o DeliveryOutcome) Delivered() bool {
	return o.Channel != ChannelFailed
}
