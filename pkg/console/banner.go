package console

import "github.com/uartcmd/uartcmd-go/pkg/stream"

// Banner lines written once when a session starts.
const (
	BannerTitle  = "Command\r\n"
	BannerPrompt = "Enter string followed by new line:\r\n"
	Prompt       = '>'
)

// WriteBanner writes the startup banner followed by the prompt.
func WriteBanner(w stream.Sink) error {
	if err := w.WriteString(BannerTitle); err != nil {
		return err
	}
	if err := w.WriteString(BannerPrompt); err != nil {
		return err
	}
	return w.WriteChar(Prompt)
}
