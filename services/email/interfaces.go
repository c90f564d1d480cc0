package email

type EmailSender interface {
	SendEmail(to, subject, body string) error
	SendReceiptEmail(to, name, receipt string) error
	SendPixExpiredEmail(to, name, itemTitle string) error
}
