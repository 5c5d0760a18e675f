package adapter

import "testing"

func TestParseMiningDutchBodyShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]float64 // name -> hashrate
	}{
		{
			name: "getuserworkers/data/miners array",
			body: `{"getuserworkers":{"data":{"miners":[{"worker":"w1","hashrate":"120"},{"worker":"w2","hashrate":"0","alive":"1"}]}}}`,
			want: map[string]float64{"w1": 120, "w2": 0},
		},
		{
			name: "data/workers map",
			body: `{"data":{"workers":{"w1":{"hashrate":"50"}}}}`,
			want: map[string]float64{"w1": 50},
		},
		{
			name: "bare workers array",
			body: `{"workers":[{"name":"w1","hashrate":"10"}]}`,
			want: map[string]float64{"w1": 10},
		},
		{
			name: "bare data map",
			body: `{"data":{"w1":{"hashrate":"5"}}}`,
			want: map[string]float64{"w1": 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := parseMiningDutchBody([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := map[string]float64{}
			for _, o := range obs {
				got[o.Name] = o.Hashrate
			}
			for name, hr := range tt.want {
				if got[name] != hr {
					t.Errorf("worker %q hashrate = %v, want %v (all: %+v)", name, got[name], hr, got)
				}
			}
		})
	}
}

func TestParseMiningDutchBodyUnrecognised(t *testing.T) {
	_, err := parseMiningDutchBody([]byte(`{"unexpected":"shape"}`))
	if err == nil {
		t.Fatal("expected error for unrecognised shape")
	}
}

func TestMiningDutchWorkerOnlineSignals(t *testing.T) {
	obs, err := parseMiningDutchBody([]byte(`{"workers":[
		{"name":"alive-flag","alive":"1","hashrate":"0"},
		{"name":"positive-label","status":"active","hashrate":"0"},
		{"name":"nothing","hashrate":"0"}
	]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byName := map[string]Observation{}
	for _, o := range obs {
		byName[o.Name] = o
	}

	if !IsOnline(byName["alive-flag"], fixedNow()) {
		t.Error("alive-flag should be online")
	}
	if !IsOnline(byName["positive-label"], fixedNow()) {
		t.Error("positive-label should be online")
	}
	if IsOnline(byName["nothing"], fixedNow()) {
		t.Error("nothing should be offline")
	}
}
