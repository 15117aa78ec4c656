package notify

import (
	"fmt"
	"strings"
	"time"
)

const (
	KindBookingCreated   = "booking_created"
	KindBookingCancelled = "booking_cancelled"
	KindFeeDue           = "fee_due"

	dateTimeLayout = "02/01/2006 15:04"
	dateLayout     = "02/01/2006"
)

// Recipient is where a notification goes. Empty Email or PushToken skips that channel.
type Recipient struct {
	Name      string
	Email     string
	PushToken string
}

// BookingCreated tells a trainer that a member booked one of their slots.
func BookingCreated(trainer Recipient, memberName string, start time.Time, location string) []Job {
	subject := "Novo agendamento"
	body := fmt.Sprintf(`Olá %s,

%s agendou um horário com você.

Data: %s
Local: %s

- Equipe Treinopp`, trainer.Name, memberName, start.Format(dateTimeLayout), location)
	push := fmt.Sprintf("%s agendou %s", memberName, start.Format(dateTimeLayout))

	return jobsFor(trainer, KindBookingCreated, subject, body, push, map[string]string{
		"start": start.Format(time.RFC3339),
	})
}

// BookingCancelled tells the other party that a booking was cancelled.
func BookingCancelled(to Recipient, start time.Time, location string) []Job {
	subject := "Agendamento cancelado"
	body := fmt.Sprintf(`Olá %s,

O agendamento abaixo foi cancelado:

Data: %s
Local: %s

- Equipe Treinopp`, to.Name, start.Format(dateTimeLayout), location)
	push := fmt.Sprintf("Agendamento de %s cancelado", start.Format(dateTimeLayout))

	return jobsFor(to, KindBookingCancelled, subject, body, push, map[string]string{
		"start": start.Format(time.RFC3339),
	})
}

// FeeDueReminder reminds a student that a monthly fee is about to fall due.
func FeeDueReminder(student Recipient, feeID string, amountCents int64, due time.Time) []Job {
	amount := FormatBRL(amountCents)
	subject := "Sua mensalidade vence em breve"
	body := fmt.Sprintf(`Olá %s,

Sua mensalidade de %s vence em %s.

Se o pagamento já foi feito, desconsidere esta mensagem.

- Equipe Treinopp`, student.Name, amount, due.Format(dateLayout))
	push := fmt.Sprintf("Mensalidade de %s vence em %s", amount, due.Format(dateLayout))

	return jobsFor(student, KindFeeDue, subject, body, push, map[string]string{
		"fee_id": feeID,
		"due":    due.Format("2006-01-02"),
	})
}

func jobsFor(r Recipient, kind, subject, emailBody, pushBody string, data map[string]string) []Job {
	var jobs []Job
	if r.Email != "" {
		jobs = append(jobs, Job{
			Channel: ChannelEmail,
			Kind:    kind,
			To:      r.Email,
			Name:    r.Name,
			Subject: subject,
			Body:    emailBody,
		})
	}
	if r.PushToken != "" {
		jobs = append(jobs, Job{
			Channel: ChannelPush,
			Kind:    kind,
			To:      r.PushToken,
			Name:    r.Name,
			Subject: subject,
			Body:    pushBody,
			Data:    data,
		})
	}
	return jobs
}

// FormatBRL renders cents as "R$ 1.234,56".
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := fmt.Sprintf("%d", cents/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), cents%100)
}
