/*
Package sanitize filters relayed chat text before it leaves the hub.

Text is restricted to an allow-list of characters (printable ASCII plus the
extended codepage-437 set game clients can render), then run through a
profanity censor that masks profane tokens with same-length asterisks.
The order matters: the censor must see the already-filtered text.
*/
package sanitize

import (
	"strings"

	goaway "github.com/TwiN/go-away"
)

const allowedChars = ` !\"$#%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\]^_'abcdefghijklmnopqrstuvwxyz{|}~⌂ÇüéâäàåçêëèïîìÄÅÉæÆôöòûùÿÖÜø£Ø×ƒáíóúñÑªº¿®¬½¼¡«»`

var detector = goaway.NewProfanityDetector()

// Message returns m restricted to the allowed character set with profane
// tokens censored.
func Message(m string) string {
	var b strings.Builder
	b.Grow(len(m))

	for _, r := range m {
		if strings.ContainsRune(allowedChars, r) {
			b.WriteRune(r)
		}
	}

	return detector.Censor(b.String())
}
