package inbox

import (
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// DemoMessages is a small set of realistic customer mails covering every category
var DemoMessages = []core.Message{
	{
		From:    "anna.svensson@example.se",
		Subject: "Offertförfrågan - Altanbygge",
		Body: `Hej!

Jag planerar att bygga en altan på ca 25 kvm och undrar om ni kan ge mig en offert.

Behöver ungefär:
- Altangolv (bräder)
- Reglar för stommen
- Skruv och beslag

Kan ni skicka en prisuppskattning?

Mvh,
Anna Svensson`,
	},
	{
		From:    "erik.johansson@example.se",
		Subject: "Klagomål - Fel leverans",
		Body: `Hej,

Jag beställde 50 st bräda 22x145 förra veckan men fick bara 40 st levererade.
Dessutom var 5 av brädorna spruckna.

Ordernummer: 2024-1234

Jag vill ha ersättning för de saknade och skadade brädorna.

Erik Johansson`,
	},
	{
		From:    "maria@lindqvistbygg.example.se",
		Subject: "Boka möte - Stororder",
		Body: `Hej!

Vi planerar ett större byggprojekt och skulle vilja boka ett möte.
Kan vi ses på fredag kl 14:00?

Med vänlig hälsning,
Maria Lindqvist
Lindqvist Bygg AB`,
	},
	{
		From:    "lisa.berg@example.se",
		Subject: "Materialberäkning garage 40kvm",
		Body: `Hej Bengtssons!

Kan ni göra en uppskattning av materialbehov för ett garage på 40 kvm?

Garaget ska ha:
- Regelstomme
- Plywoodskivor på väggarna
- Mineralullsisolering
- Takpannor

Tack!
Lisa Berg`,
	},
	{
		From:    "anders@example.se",
		Subject: "Prisförfrågan plywood",
		Body: `Tjena!

Vad kostar plywood 12mm hos er? Behöver 20 skivor.
Har ni OSB-skivor också?

/Anders`,
	},
}

// NewDemoTransport creates a stub transport whose inbox already holds the
// demo messages, one minute apart
func NewDemoTransport(logger *zap.Logger) *Transport {
	t := NewStubTransport(logger)
	start := time.Now().Add(-time.Duration(len(DemoMessages)) * time.Minute)
	for i, msg := range DemoMessages {
		msg.ReceivedAt = start.Add(time.Duration(i) * time.Minute)
		t.Deliver(msg)
	}
	return t
}
