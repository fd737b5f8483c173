package services

import (
	"bytes"
	"math"
)

func floatClose(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

// bytesReader feeds generated workbooks back into excelize.OpenReader.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
