package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"formgate/internal/contact/models"
)

// BuildOwnerMessage renders the notification the site owner receives for a
// new submission. Field values arrive already entity-encoded; the renderer
// only lays them out.
func BuildOwnerMessage(from, owner string, sub *models.SanitizedSubmission) *Message {
	var html strings.Builder
	html.WriteString("<h2>New contact form submission</h2>\n")
	html.WriteString("<table cellpadding=\"6\">\n")
	writeRow(&html, "Name", sub.Name)
	writeRow(&html, "Email", sub.Email)
	writeRow(&html, "Subject", sub.Subject)
	if sub.Budget != "" {
		writeRow(&html, "Budget", sub.Budget)
	}
	if sub.Timeline != "" {
		writeRow(&html, "Timeline", sub.Timeline)
	}
	html.WriteString("</table>\n")
	html.WriteString("<h3>Message</h3>\n")
	fmt.Fprintf(&html, "<p>%s</p>\n", sub.Message)
	html.WriteString("<hr>\n<p style=\"color:#888;font-size:12px\">")
	fmt.Fprintf(&html, "Submission %s received %s", sub.ID, sub.ReceivedAt.UTC().Format(time.RFC3339))
	if client := describeClient(sub.UserAgent); client != "" {
		fmt.Fprintf(&html, " from %s", client)
	}
	if sub.TimeZone != "" {
		fmt.Fprintf(&html, " (%s)", sub.TimeZone)
	}
	html.WriteString("</p>\n")

	var text strings.Builder
	fmt.Fprintf(&text, "New contact form submission\n\n")
	fmt.Fprintf(&text, "Name: %s\nEmail: %s\nSubject: %s\n", sub.Name, sub.Email, sub.Subject)
	if sub.Budget != "" {
		fmt.Fprintf(&text, "Budget: %s\n", sub.Budget)
	}
	if sub.Timeline != "" {
		fmt.Fprintf(&text, "Timeline: %s\n", sub.Timeline)
	}
	fmt.Fprintf(&text, "\n%s\n\nSubmission %s received %s\n", sub.Message, sub.ID, sub.ReceivedAt.UTC().Format(time.RFC3339))

	return &Message{
		From:    from,
		To:      []string{owner},
		ReplyTo: sub.Email,
		Subject: fmt.Sprintf("Contact form: %s", sub.Subject),
		HTML:    html.String(),
		Text:    text.String(),
	}
}

// BuildAckMessage renders the acknowledgement sent back to the submitter.
func BuildAckMessage(from string, sub *models.SanitizedSubmission) *Message {
	html := fmt.Sprintf(
		"<p>Hi %s,</p>\n<p>Thanks for getting in touch. Your message has been received and you can expect a reply shortly.</p>\n<p>For reference, your subject was: <em>%s</em></p>\n",
		sub.Name, sub.Subject,
	)
	text := fmt.Sprintf(
		"Hi %s,\n\nThanks for getting in touch. Your message has been received and you can expect a reply shortly.\n\nFor reference, your subject was: %s\n",
		sub.Name, sub.Subject,
	)

	return &Message{
		From:    from,
		To:      []string{sub.Email},
		Subject: "Thanks for your message",
		HTML:    html,
		Text:    text,
	}
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<tr><td><strong>%s</strong></td><td>%s</td></tr>\n", label, value)
}

// describeClient condenses a raw User-Agent header into "Browser x.y on OS".
// The raw header is attacker-controlled and never embedded; only the parsed
// browser and OS names are.
func describeClient(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return ""
	}
	desc := name
	if version != "" {
		desc += " " + version
	}
	if os := ua.OS(); os != "" {
		desc += " on " + os
	}
	if ua.Bot() {
		desc += " (bot)"
	}
	return desc
}
