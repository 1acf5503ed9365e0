package services

import (
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// formValues extracts the action and all input fields from the first form in
// an HTML document. The vendor login is a plain browser form flow, so the
// hidden inputs (csrf tokens, flow state) must be carried over verbatim into
// the next POST.
func formValues(reader io.Reader) (string, url.Values, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to parse login page")
	}

	form := doc.Find("form").First()
	if form.Length() != 1 {
		return "", nil, errors.New("no form found in login page")
	}

	action, _ := form.Attr("action")

	values := make(url.Values)
	form.Find("input").Each(func(_ int, el *goquery.Selection) {
		if name, ok := el.Attr("name"); ok {
			val, _ := el.Attr("value")
			values.Set(name, val)
		}
	})

	return action, values, nil
}
