package datapush

import (
	"MinWageDiD/src/config"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"

	"github.com/jordan-wright/email"
)

// MailEnabled 配置了 SMTP 服务器和收件人才发送
func MailEnabled(c *config.Config) bool {
	return c.SendEmail.Server != "" && len(c.SendEmail.To) > 0
}

// NewReportEmail 构造报告邮件，attachment 为空时不带附件
func NewReportEmail(c *config.Config, body, attachment string) (*email.Email, error) {
	e := email.NewEmail()
	e.From = fmt.Sprintf("DiD Report <%s>", c.SendEmail.Username)
	e.To = c.SendEmail.To
	e.Subject = c.SendEmail.Subject
	e.Text = []byte(body)

	if attachment != "" {
		if _, err := os.Stat(attachment); err != nil {
			return nil, fmt.Errorf("附件文件不存在: %s: %w", attachment, err)
		}
		if _, err := e.AttachFile(attachment); err != nil {
			return nil, fmt.Errorf("附件添加失败: %w", err)
		}
	}
	return e, nil
}

// SendReport 通过 SMTP(显式 TLS) 发送回归报告
func SendReport(c *config.Config, body, attachment string) error {
	e, err := NewReportEmail(c, body, attachment)
	if err != nil {
		return err
	}

	smtpAddr, host := smtpAddress(c.SendEmail.Server)
	err = e.SendWithTLS(
		smtpAddr,
		smtp.PlainAuth("", c.SendEmail.Username, c.SendEmail.Password, host),
		&tls.Config{ServerName: host},
	)
	if err != nil {
		return fmt.Errorf("邮件发送失败: %w (Server: %s)", err, smtpAddr)
	}
	return nil
}

// smtpAddress 确保服务器地址包含端口，默认 SSL 端口 465
func smtpAddress(server string) (addr, host string) {
	if h, _, err := net.SplitHostPort(server); err == nil {
		return server, h
	}
	server = strings.TrimSuffix(server, ":")
	return net.JoinHostPort(server, "465"), server
}
