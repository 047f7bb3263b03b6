package ui

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

// Environment variables carrying the toast text. The script reads them at
// run time so title and message never become PowerShell source.
const (
	windowsTitleEnv   = "SENTINELFETCH_NOTIFY_TITLE"
	windowsMessageEnv = "SENTINELFETCH_NOTIFY_MESSAGE"
)

const windowsToastScript = `
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
$doc.LoadXml('<toast><visual><binding template="ToastText02"><text id="1"></text><text id="2"></text></binding></visual></toast>')
$texts = $doc.GetElementsByTagName('text')
$texts.Item(0).AppendChild($doc.CreateTextNode($env:` + windowsTitleEnv + `)) | Out-Null
$texts.Item(1).AppendChild($doc.CreateTextNode($env:` + windowsMessageEnv + `)) | Out-Null
$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('sentinelfetch').Show($toast)
`

func (w *WindowsNotificationSender) Send(title, message string) error {
	return w.command(title, message).Run()
}

func (w *WindowsNotificationSender) command(title, message string) *exec.Cmd {
	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", windowsToastScript)
	cmd.Env = append(os.Environ(),
		windowsTitleEnv+"="+title,
		windowsMessageEnv+"="+message,
	)
	return cmd
}

// Notifier sends desktop notifications and echoes them to the console
type Notifier struct {
	sender  NotificationSender
	console *Console
}

// NewNotifier creates a Notifier for the current platform
func NewNotifier(console *Console) *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return NewNotifierWithSender(console, sender)
}

// NewNotifierWithSender creates a Notifier using sender. A nil sender only
// prints.
func NewNotifierWithSender(console *Console, sender NotificationSender) *Notifier {
	if console == nil {
		console = NewConsole(nil)
	}
	return &Notifier{sender: sender, console: console}
}

// SendSuccess sends a success notification. Delivery errors are returned
// so callers can log them; the console line is always printed.
func (n *Notifier) SendSuccess(title, message string) error {
	n.console.PrintInfo(title, message)
	return n.send(title, message)
}

// SendError sends an error notification without a console line. The
// caller already reports the error on the terminal.
func (n *Notifier) SendError(title, message string) error {
	return n.send(title, message)
}

func (n *Notifier) send(title, message string) error {
	if n.sender == nil {
		return nil
	}
	if err := n.sender.Send(title, message); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
