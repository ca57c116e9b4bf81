package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/schema"
	"github.com/alecacerestel/AppASO/internal/transform"
)

// Config contains SMTP settings for run notifications.
type Config struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Host      string `yaml:"host" mapstructure:"host"`
	Port      int    `yaml:"port" mapstructure:"port"`
	User      string `yaml:"user" mapstructure:"user"`
	Password  string `yaml:"password" mapstructure:"password"`
	Recipient string `yaml:"recipient" mapstructure:"recipient"`
}

// Mailer sends run summaries over SMTP. Sending is best effort: a mail
// failure is logged and never fails the run that produced the data.
type Mailer struct {
	cfg    Config
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
	logger *zap.Logger
}

// New creates a Mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail, logger: logger}
}

// Success mails the per-table counts and warning totals of a completed
// run.
func (m *Mailer) Success(result *transform.Result, started time.Time) {
	var b strings.Builder
	fmt.Fprintf(&b, "ASO pipeline run completed at %s (took %s).\n\n",
		time.Now().Format("2006-01-02 15:04:05"), time.Since(started).Round(time.Second))
	for _, dataType := range schema.DataTypes() {
		if table, ok := result.Tables[dataType]; ok {
			fmt.Fprintf(&b, "%-10s %d rows (%d raw, %d dropped for missing date)\n",
				dataType, len(table.Rows), result.RowsIn[dataType], result.DroppedRows[dataType])
		} else {
			fmt.Fprintf(&b, "%-10s FAILED\n", dataType)
		}
	}
	if total := result.WarningTotal(); total > 0 {
		fmt.Fprintf(&b, "\n%d unparsable cells were recovered as missing values.\n", total)
	}
	m.deliver("ASO pipeline: run completed", b.String())
}

// Failure mails the stage and error of a run that did not complete.
func (m *Mailer) Failure(stage string, err error) {
	body := fmt.Sprintf("ASO pipeline failed during %s at %s:\n\n%v\n",
		stage, time.Now().Format("2006-01-02 15:04:05"), err)
	m.deliver("ASO pipeline: run FAILED", body)
}

func (m *Mailer) deliver(subject, body string) {
	if !m.cfg.Enabled {
		return
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.User, m.cfg.Recipient, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err := m.send(addr, auth, m.cfg.User, []string{m.cfg.Recipient}, []byte(msg)); err != nil {
		m.logger.Error("notification mail failed",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	m.logger.Info("notification sent", zap.String("subject", subject))
}
