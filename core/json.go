package core

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString accepts both JSON strings and numbers.
type FlexString string

func (fs *FlexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*fs = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*fs = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*fs = FlexString(n.String())
	return nil
}

// FlexInt accepts JSON numbers and numeric strings ("12").
type FlexInt int

func (fi *FlexInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*fi = 0
		return nil
	}
	var fs FlexString
	if err := fs.UnmarshalJSON(b); err != nil {
		return err
	}
	if fs == "" {
		*fi = 0
		return nil
	}
	n, err := strconv.Atoi(string(fs))
	if err != nil {
		return err
	}
	*fi = FlexInt(n)
	return nil
}
