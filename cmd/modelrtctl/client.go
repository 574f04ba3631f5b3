package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// httpClient is the stdlib client the CLI speaks to a running modelrtd
// over, mirroring the install pipeline's own use of http.DefaultClient
// rather than reaching for a third-party REST client for a handful of
// plain JSON/NDJSON requests.
var httpClient = &http.Client{}

func getJSON(url string, out any) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// streamNDJSON POSTs body (or no body, if nil) to url and decodes the
// response as a stream of NDJSON objects, invoking onLine for each
// decoded line until EOF.
func streamNDJSON(url string, body any, onLine func(json.RawMessage) error) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	}
	resp, err := httpClient.Post(url, "application/json", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %s", url, resp.Status)
	}
	dec := json.NewDecoder(resp.Body)
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := onLine(raw); err != nil {
			return err
		}
	}
}
