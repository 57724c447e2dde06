package wire

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"
)

func TestCtlRequestJSON(t *testing.T) {
	req := CtlRequest{Kind: CtlLaunchUri, Payload: "https://example.com/app"}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"LaunchUri":"https://example.com/app"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
	var out CtlRequest
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out != req {
		t.Errorf("got %+v, want %+v", out, req)
	}
}

func TestCtlResponseJSON(t *testing.T) {
	tests := []struct {
		name string
		resp CtlResponse
		want string
	}{
		{"success", CtlResponse{Status: StatusSuccess}, `"Success"`},
		{"cancel", CtlResponse{Status: StatusCancel}, `"Cancel"`},
		{"waiting", CtlResponse{Status: StatusWaiting}, `"Waiting"`},
		{"error", CtlResponse{Status: StatusError, Code: 7}, `{"Error":7}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.resp)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tc.want {
				t.Errorf("got %s, want %s", data, tc.want)
			}
			var out CtlResponse
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatal(err)
			}
			if out != tc.resp {
				t.Errorf("got %+v, want %+v", out, tc.resp)
			}
		})
	}
}

func TestCtlResponseUnmarshalRejectsBadObject(t *testing.T) {
	var r CtlResponse
	if err := r.UnmarshalJSON([]byte(`{"Bogus":1}`)); err == nil {
		t.Error("expected error for unrecognized object shape")
	}
	if err := r.UnmarshalJSON([]byte(`42`)); err == nil {
		t.Error("expected error for bare number")
	}
}

func TestCtlRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ctl  Ctl
	}{
		{"request", Ctl{IsRequest: true, Request: CtlRequest{Kind: CtlLaunchUri, Payload: "geo:0,0"}}},
		{"response", Ctl{IsRequest: false, Response: CtlResponse{Status: StatusSuccess}}},
		{"error response", Ctl{IsRequest: false, Response: CtlResponse{Status: StatusError, Code: 9}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.ctl)
			if err != nil {
				t.Fatal(err)
			}
			var out Ctl
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatal(err)
			}
			if out != tc.ctl {
				t.Errorf("got %+v, want %+v", out, tc.ctl)
			}
		})
	}
}

func TestCtlUnmarshalRejectsEmptyObject(t *testing.T) {
	var c Ctl
	if err := c.UnmarshalJSON([]byte(`{}`)); err == nil {
		t.Error("expected error for object with neither Request nor Response")
	}
}

func TestSessionEncoderDecoderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewSessionEncoder(&buf)

	sessions := []Session{
		{Id: 1, Ctl: Ctl{IsRequest: true, Request: CtlRequest{Kind: CtlLaunchUri, Payload: "https://a"}}},
		{Id: 2, Ctl: Ctl{IsRequest: false, Response: CtlResponse{Status: StatusWaiting}}},
		{Id: 1, Ctl: Ctl{IsRequest: false, Response: CtlResponse{Status: StatusSuccess}}},
	}
	for _, s := range sessions {
		if err := enc.Encode(s); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	dec := NewSessionDecoder(&buf)
	for i, want := range sessions {
		got, err := dec.Decode()
		if err != nil {
			t.Fatalf("Decode[%d]: %v", i, err)
		}
		if got != want {
			t.Errorf("Decode[%d] = %+v, want %+v", i, got, want)
		}
	}
	if _, err := dec.Decode(); err != io.EOF {
		t.Errorf("final Decode err = %v, want io.EOF", err)
	}
}

func TestSessionEncoderWritesNewlineDelimited(t *testing.T) {
	var buf bytes.Buffer
	enc := NewSessionEncoder(&buf)
	if err := enc.Encode(Session{Id: 1, Ctl: Ctl{IsRequest: true, Request: CtlRequest{Kind: CtlLaunchUri, Payload: "x"}}}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(Session{Id: 2, Ctl: Ctl{IsRequest: false, Response: CtlResponse{Status: StatusSuccess}}}); err != nil {
		t.Fatal(err)
	}
	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
}

func TestSessionDecoderRejectsOversizedLine(t *testing.T) {
	oversized := append([]byte(`{"id":1,"ctl":{"Request":{"LaunchUri":"`), bytes.Repeat([]byte{'x'}, MaxSessionLineSize)...)
	oversized = append(oversized, []byte(`"}}}`+"\n")...)
	dec := NewSessionDecoder(bytes.NewReader(oversized))
	if _, err := dec.Decode(); err == nil {
		t.Error("expected error for line exceeding MaxSessionLineSize")
	}
}

func TestSessionDecoderRejectsMalformedLine(t *testing.T) {
	dec := NewSessionDecoder(bytes.NewReader([]byte("not json\n")))
	if _, err := dec.Decode(); err == nil {
		t.Error("expected parse error for malformed line")
	}
}
