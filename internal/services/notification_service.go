package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"expenseflow/internal/config"
	"expenseflow/internal/logger"
	"expenseflow/internal/models"
)

// notificationService sends workflow emails over SMTP. Delivery is
// best-effort: failures are logged and swallowed so a lost email can
// never fail a committed transition.
type notificationService struct {
	cfg *config.Config
}

// NewNotificationService creates a new Notifier.
func NewNotificationService(cfg *config.Config) Notifier {
	return &notificationService{cfg: cfg}
}

// NotifySubmission tells the owner's manager a new expense awaits review.
func (s *notificationService) NotifySubmission(expense *models.Expense, manager *models.User) {
	if manager == nil || manager.Email == "" {
		logger.Get().Warnw("cannot send submission notification, no manager email",
			"expense_id", expense.ID)
		return
	}

	subject := fmt.Sprintf("New Expense Submitted for Approval (ID: %d)", expense.ID)
	body := fmt.Sprintf(
		"Hello %s,\n\nA new expense requires your approval:\n\n"+
			"Submitted by: %s %s (%s)\n"+
			"Amount: %.2f\n"+
			"Description: %s\n"+
			"Date: %s\n\n"+
			"Please log in to the system to review and approve/reject this expense.\n\n"+
			"Thank you,\nExpenseflow",
		displayName(manager),
		expense.User.FirstName, expense.User.LastName, expense.User.Email,
		float64(expense.Amount)/100,
		expense.Description,
		expense.ExpenseDate.Format("2006-01-02"),
	)

	s.send(manager.Email, subject, body)
}

// NotifyStatusChange tells the expense owner about a workflow decision.
func (s *notificationService) NotifyStatusChange(expense *models.Expense, message string) {
	if expense.User.Email == "" {
		logger.Get().Warnw("cannot send status notification, no owner email",
			"expense_id", expense.ID)
		return
	}

	subject := fmt.Sprintf("Update on Your Expense Report (ID: %d)", expense.ID)
	body := fmt.Sprintf(
		"Hello %s,\n\n%s\n\n"+
			"Description: %s\n"+
			"Amount: %.2f\n\n"+
			"You can view the details by logging into the system.\n\n"+
			"Thank you,\nExpenseflow",
		displayName(&expense.User),
		message,
		expense.Description,
		float64(expense.Amount)/100,
	)

	s.send(expense.User.Email, subject, body)
}

func (s *notificationService) send(to, subject, body string) {
	if !s.cfg.SMTPEnabled {
		logger.Get().Debugw("smtp disabled, skipping notification", "to", to, "subject", subject)
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.SMTPFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUsername, s.cfg.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		logger.Get().Errorw("failed to send notification email",
			"to", to, "subject", subject, "error", err)
		return
	}
	logger.Get().Infow("notification email sent", "to", to, "subject", subject)
}

func displayName(u *models.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
