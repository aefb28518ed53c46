package jiffies

import "testing"

func TestPerSampleKnownRates(t *testing.T) {
	cases := []struct {
		rate uint
		want uint64
	}{
		{44100, PerSecond / 44100},
		{48000, PerSecond / 48000},
		{2822400, PerSecond / 2822400},
	}
	for _, c := range cases {
		got, err := PerSample(c.rate)
		if err != nil {
			t.Fatalf("PerSample(%d): unexpected error %v", c.rate, err)
		}
		if got != c.want {
			t.Errorf("PerSample(%d) = %d, want %d", c.rate, got, c.want)
		}
	}
}

func TestPerSampleInvalidRate(t *testing.T) {
	for _, rate := range []uint{0, 1, 44101, 96001, 3000000} {
		if _, err := PerSample(rate); err != ErrSampleRateInvalid {
			t.Errorf("PerSample(%d) = %v, want ErrSampleRateInvalid", rate, err)
		}
	}
}

func TestToBytesFromBytesRoundTrip(t *testing.T) {
	const rate = 44100
	const channels = 2
	const depth = 16
	b, err := ToBytes(PerSecond, rate, channels, depth)
	if err != nil {
		t.Fatal(err)
	}
	want := uint64(rate) * channels * (depth / 8)
	if b != want {
		t.Errorf("ToBytes(1s) = %d, want %d", b, want)
	}
	j, err := FromBytes(b, rate, channels, depth)
	if err != nil {
		t.Fatal(err)
	}
	if j != PerSecond {
		t.Errorf("FromBytes(ToBytes(1s)) = %d, want %d", j, PerSecond)
	}
}

func TestSongcastTicksRoundTrip(t *testing.T) {
	for _, rate := range []uint{44100, 48000, 88200, 96000} {
		ticks, err := ToSongcastTicks(PerSecond, rate)
		if err != nil {
			t.Fatal(err)
		}
		back, err := FromSongcastTicks(ticks, rate)
		if err != nil {
			t.Fatal(err)
		}
		if back != PerSecond {
			t.Errorf("rate %d: round-trip got %d, want %d", rate, back, PerSecond)
		}
	}
}

func TestRoundUpDownSample(t *testing.T) {
	perSample, _ := PerSample(44100)
	up, err := RoundUpSample(perSample+1, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if up != 2*perSample {
		t.Errorf("RoundUpSample = %d, want %d", up, 2*perSample)
	}
	down, err := RoundDownSample(perSample+1, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if down != perSample {
		t.Errorf("RoundDownSample = %d, want %d", down, perSample)
	}
}

func TestRoundSampleBlock(t *testing.T) {
	perSample, _ := PerSample(2822400)
	blockSamples := uint(16)
	perBlock := perSample * uint64(blockSamples)
	up, err := RoundUpSampleBlock(perBlock+1, 2822400, blockSamples)
	if err != nil {
		t.Fatal(err)
	}
	if up != 2*perBlock {
		t.Errorf("RoundUpSampleBlock = %d, want %d", up, 2*perBlock)
	}
}
