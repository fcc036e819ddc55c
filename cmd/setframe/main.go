// Command setframe reads or changes the frame convention of a running
// setpointd over its HTTP API.
//
// Usage:
//
//	setframe -server http://localhost:8080            # show the active frame
//	setframe -server http://localhost:8080 BODY_NED   # select by name
//	setframe -server http://localhost:8080 8          # select by protocol id
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/meridian-uas/setpoint.bridge/internal/frame"
	"github.com/meridian-uas/setpoint.bridge/internal/httputil"
)

var server = flag.String("server", "http://localhost:8080", "setpointd base URL")

type frameResponse struct {
	Success bool   `json:"success"`
	Frame   string `json:"frame"`
	FrameID uint8  `json:"frame_id"`
	Error   string `json:"error"`
}

func main() {
	flag.Parse()

	client := httputil.NewStandardClient(nil)
	out, err := run(client, *server, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprint(os.Stdout, out)
}

// run performs the query or selection and returns the text to print.
func run(client httputil.HTTPClient, base string, args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("expected at most one frame argument, got %d", len(args))
	}

	url := base + "/api/frame"
	var resp *http.Response
	var err error

	if len(args) == 0 {
		resp, err = client.Get(url)
	} else {
		id, perr := parseFrameArg(args[0])
		if perr != nil {
			return "", perr
		}
		body, _ := json.Marshal(map[string]uint8{"frame_id": id})
		resp, err = client.Post(url, "application/json", bytes.NewReader(body))
	}
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var fr frameResponse
	if err := json.Unmarshal(data, &fr); err != nil {
		return "", fmt.Errorf("unexpected response from %s: %s", url, data)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server rejected request: %s", fr.Error)
	}

	return fmt.Sprintf("%s (%d)\n", fr.Frame, fr.FrameID), nil
}

// parseFrameArg accepts either a protocol id or a frame name.
func parseFrameArg(arg string) (uint8, error) {
	if n, err := strconv.ParseUint(arg, 10, 8); err == nil {
		return uint8(n), nil
	}
	f, err := frame.FromName(arg)
	if err != nil {
		return 0, fmt.Errorf("unknown frame %q", arg)
	}
	return uint8(f), nil
}
