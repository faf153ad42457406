package notifier

import (
	"fmt"
	"strings"

	"github.com/arsal072-sys/protonsms072/internal/model"
)

// FormatRecord renders an OTP record as the markdown card posted to
// the chat. A code the extractor could not find is shown as-is (the
// "N/A" marker) rather than suppressing the message.
func FormatRecord(rec model.OtpRecord) string {
	var b strings.Builder
	b.WriteString("📩 *LIVE OTP RECEIVED*\n\n")
	fmt.Fprintf(&b, "📞 *Number:* `%s`\n", rec.Number)
	fmt.Fprintf(&b, "🔢 *OTP:* 🔥 `%s` 🔥\n", rec.Code)
	fmt.Fprintf(&b, "🏷 *Service:* %s\n", rec.Service)
	fmt.Fprintf(&b, "🌍 *Country:* %s\n", rec.Country)
	fmt.Fprintf(&b, "🕒 *Time:* %s\n\n", rec.Timestamp.Format(model.TimeLayout))
	fmt.Fprintf(&b, "💬 *SMS:*\n%s", rec.Text)
	return b.String()
}

// FormatSessionExpired renders the operator alert for a rejected
// panel session.
func FormatSessionExpired() string {
	return "⚠️ *SESSION EXPIRED*\n\n" +
		"The panel rejected the current session.\n" +
		"Update the `PHPSESSID` value and restart the bot."
}
