package domain

// Notification is a fire-and-forget outbound message. Delivery failures are
// logged by the dispatcher and never surfaced to the enqueuing flow.
type Notification struct {
	Channel   string // ChannelEmail | ChannelPhone
	Recipient string
	Subject   string
	Body      string
}
