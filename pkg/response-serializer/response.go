package serializer

import (
	"bufio"
	"bytes"
	"net/http"
)

// ResponseToBytes converts a response to its HTTP/1.1 wire representation.
// The response body is consumed and then restored from the serialized copy,
// so the response can still be sent to a client afterwards.
func ResponseToBytes(res *http.Response) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, err
	}
	bts := buf.Bytes()
	clone, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(bts)), res.Request)
	if err != nil {
		return nil, err
	}
	res.Body = clone.Body
	return bts, nil
}

// BytesToResponse parses a serialized response back into a http.Response.
func BytesToResponse(b []byte) (*http.Response, error) {
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
}
