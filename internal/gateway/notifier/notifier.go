package notifier

// Notifier delivers out-of-band alert notifications. Implementations
// make a single delivery attempt; the next poll round re-raising the
// alert is the only retry path.
type Notifier interface {
	SendText(text string) error
	SendPhoto(caption string, png []byte) error
}
