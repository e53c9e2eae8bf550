package process

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used when a Command does not name one.
const DefaultEncoding = "utf-8"

// ibmCodePages covers DOS code pages that the WHATWG index behind htmlindex
// does not know about. Console toolchains on Windows still emit them.
var ibmCodePages = map[string]encoding.Encoding{
	"cp437":  charmap.CodePage437,
	"ibm437": charmap.CodePage437,
	"cp850":  charmap.CodePage850,
	"ibm850": charmap.CodePage850,
	"cp852":  charmap.CodePage852,
	"ibm852": charmap.CodePage852,
	"cp855":  charmap.CodePage855,
	"ibm855": charmap.CodePage855,
	"cp858":  charmap.CodePage858,
	"cp862":  charmap.CodePage862,
	"cp865":  charmap.CodePage865,
}

// LookupEncoding resolves an encoding by name ("utf-8", "windows-1251",
// "ibm866", "cp437", ...). An empty name resolves to UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == "utf8" {
		key = DefaultEncoding
	}
	if enc, ok := ibmCodePages[key]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("process: unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

func orUTF8(enc encoding.Encoding) encoding.Encoding {
	if enc == nil {
		return unicode.UTF8
	}
	return enc
}
