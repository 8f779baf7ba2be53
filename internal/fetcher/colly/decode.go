package collyfetcher

import (
	"fmt"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// minConfidence is the chardet score below which detection is ignored.
const minConfidence = 50

// toUTF8 returns body re-encoded as UTF-8. Valid UTF-8 is returned as is.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	if len(body) == 0 || utf8.Valid(body) {
		return body, nil
	}
	if enc := detectEncoding(body); enc != nil {
		if decoded, err := enc.NewDecoder().Bytes(body); err == nil {
			return decoded, nil
		}
	}
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return decoded, nil
}

func detectEncoding(body []byte) encoding.Encoding {
	result, err := chardet.NewHtmlDetector().DetectBest(body)
	if err != nil || result == nil || result.Confidence < minConfidence {
		return nil
	}
	enc, err := htmlindex.Get(result.Charset)
	if err != nil {
		return nil
	}
	return enc
}
