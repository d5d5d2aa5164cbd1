package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// Reply subjects
const (
	complaintSubjectPrefix = "Svar på klagomål: "
	quoteSubjectPrefix     = "Offert: "
	estimateSubjectPrefix  = "Uppskattad materialåtgång: "
	meetingSubjectPrefix   = "Mötesbokning: "
	autoReplySubjectPrefix = "Autosvar: "
)

func signature(business string) string {
	return "Vänliga hälsningar,\n" + business
}

// AutoReply is the generic acknowledgement used for uncategorized mail and
// as the fallback when a generated reply is unavailable.
func AutoReply(business string, msg *core.Message) (subject, body string) {
	subject = autoReplySubjectPrefix + msg.Subject
	body = fmt.Sprintf("Hej!\n\n"+
		"Tack för ditt mejl angående: %s\n\n"+
		"Vi har mottagit ditt meddelande och återkommer så snart som möjligt.\n\n%s",
		msg.Subject, signature(business))
	return subject, body
}

func complaintFallback(business string, msg *core.Message) string {
	return fmt.Sprintf("Hej!\n\n"+
		"Tack för att du hörde av dig angående: %s\n\n"+
		"Vi har registrerat ditt ärende och tar det vidare. Vi återkommer till dig så snart vi kan.\n\n"+
		"Fortsatt trevlig dag!\n\n%s",
		msg.Subject, signature(business))
}

func salesClarification(business string) string {
	return "Hej!\n\n" +
		"Tack för din förfrågan. Vi kunde tyvärr inte avgöra vilka produkter du är intresserad av.\n" +
		"Kan du ange produkterna och hur många du behöver, så skickar vi en offert?\n\n" +
		signature(business)
}

func estimateFallback(business string) string {
	return "Hej!\n\n" +
		"Tack för din förfrågan. Vi kunde inte ta fram en automatisk materialuppskattning utifrån din beskrivning.\n" +
		"En av våra medarbetare återkommer till dig.\n\n" +
		signature(business)
}

func meetingAskForTime(business string) string {
	return "Hej!\n\n" +
		"Tack för att du vill boka ett möte med oss. Vilken dag och tid skulle passa dig?\n\n" +
		signature(business)
}

func meetingBooked(business string, start time.Time, durationMinutes int) string {
	return fmt.Sprintf("Hej!\n\n"+
		"Tack för din förfrågan. Vi har bokat ett möte %s kl %s (%d minuter).\n"+
		"Hör av dig om tiden inte passar.\n\n%s",
		start.Format("2006-01-02"), start.Format("15:04"), durationMinutes, signature(business))
}

func meetingPending(business string) string {
	return "Hej!\n\n" +
		"Tack för din mötesförfrågan. Vi har tagit emot den och återkommer med en bekräftad tid.\n\n" +
		signature(business)
}

// quoteBody renders quote lines, notices and the total
func quoteBody(business string, lines []Line, notices []string, total int) string {
	var b strings.Builder
	b.WriteString("Hej!\n\nHär är offerten du efterfrågade:\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "%s: %d st x %d kr = %d kr\n", l.ProductID, l.Quantity, l.UnitPrice, l.LineTotal)
	}
	for _, n := range notices {
		fmt.Fprintf(&b, "\nOBS: %s\n", n)
	}
	fmt.Fprintf(&b, "\nTotalpris: %d SEK\n\nVill du lägga en order?\n\n%s", total, signature(business))
	return b.String()
}

func estimateBody(business string, est *Estimate) string {
	var b strings.Builder
	b.WriteString("Hej!\n\nUtifrån din beskrivning har vi uppskattat följande materialåtgång:\n")
	for _, area := range est.Areas {
		fmt.Fprintf(&b, "\n%s:\n", area.Name)
		for _, l := range area.Lines {
			fmt.Fprintf(&b, "  %s: %d st x %d kr = %d kr\n", l.ProductID, l.Quantity, l.UnitPrice, l.LineTotal)
		}
	}
	fmt.Fprintf(&b, "\nUppskattat totalpris: %d kr\n\n"+
		"Vill du att vi tar fram en officiell offert baserat på dessa mängder?\n\n%s",
		est.Total, signature(business))
	return b.String()
}
