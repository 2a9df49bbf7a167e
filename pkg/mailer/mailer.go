package mailer

import (
	"errors"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/d60-Lab/eventhub/config"
	"github.com/d60-Lab/eventhub/pkg/logger"
)

// Sender 发送纯文本邮件
type Sender interface {
	Send(to, subject, body string) error
}

// SMTP 基于 gomail 的 SMTP 发送器
type SMTP struct {
	from   string
	dialer *gomail.Dialer
}

// New 根据配置返回发送器；未启用时返回只写日志的 LogSender
func New(cfg config.MailConfig) Sender {
	if !cfg.Enabled {
		return LogSender{}
	}
	return NewSMTP(cfg)
}

func NewSMTP(cfg config.MailConfig) *SMTP {
	return &SMTP{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *SMTP) Send(to, subject, body string) error {
	msg, err := s.message(to, subject, body)
	if err != nil {
		return err
	}
	return s.dialer.DialAndSend(msg)
}

func (s *SMTP) message(to, subject, body string) (*gomail.Message, error) {
	if to == "" {
		return nil, errors.New("no recipient specified")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg, nil
}

// LogSender 开发环境使用，邮件内容只输出到日志
type LogSender struct{}

func (LogSender) Send(to, subject, body string) error {
	logger.Info("mail disabled, message logged",
		zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}
