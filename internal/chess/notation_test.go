package chess

import (
	"errors"
	"strings"
	"testing"
)

func TestFENRoundTripReachablePositions(t *testing.T) {
	for seed := int64(100); seed < 120; seed++ {
		randomGame(t, seed, 200, func(g *Game) {
			p := g.Position()
			back, err := ParseFEN(p.FEN())
			if err != nil {
				t.Fatalf("seed %d: ParseFEN(%s): %v", seed, p.FEN(), err)
			}
			if back != p {
				t.Fatalf("seed %d: round trip mismatch\n got %s\nwant %s", seed, back.FEN(), p.FEN())
			}
		})
	}
}

func TestFENStringsRoundTrip(t *testing.T) {
	for _, fen := range []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
		"rnbqkbnr/pppp1ppp/8/8/3pP3/8/PPP2PPP/RNBQKBNR b Kq e3 12 40",
		"8/8/8/8/8/8/8/K6k b - - 99 120",
	} {
		if got := mustFEN(t, fen).FEN(); got != fen {
			t.Fatalf("FEN round trip: got %s, want %s", got, fen)
		}
	}
}

func TestFENDefaultsCounters(t *testing.T) {
	p := mustFEN(t, "4k3/8/8/8/8/8/8/4K3 w - -")
	if p.HalfmoveClock() != 0 || p.FullmoveNumber() != 1 {
		t.Fatalf("counters = %d/%d, want 0/1", p.HalfmoveClock(), p.FullmoveNumber())
	}
}

func TestFENRejectsMalformed(t *testing.T) {
	for _, fen := range []string{
		"",
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkqK - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e3 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0",
		"Pnbqkbnr/pppppppp/8/8/8/8/1PPPPPPP/RNBQKBNR w KQkq - 0 1",
		"4k3/8/8/8/8/8/4R3/4K3 w - - 0 1",
		"4k3/8/8/3PN3/8/8/8/4K3 w - e6 0 1",
		"4k3/8/8/3Pp3/8/8/8/4K3 w - d6 0 1",
		"4k3/4p3/8/3Pp3/8/8/8/4K3 w - e6 0 1",
		"4k3/8/4n3/3Pp3/8/8/8/4K3 w - e6 0 1",
	} {
		_, err := ParseFEN(fen)
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Kind != "fen" {
			t.Fatalf("ParseFEN(%q) err = %v, want fen ParseError", fen, err)
		}
	}
}

func TestFENRejectionReasons(t *testing.T) {
	cases := []struct {
		fen, reason string
	}{
		{"4k3/8/8/8/8/8/4R3/4K3 w - - 0 1", "side not to move is in check"},
		{"4k3/8/8/3PN3/8/8/8/4K3 w - e6 0 1", "en-passant square without a pawn"},
		{"4k3/8/8/8/3pP3/8/4B3/4K3 b - e3 0 1", "en-passant square without a pawn"},
	}
	for _, tc := range cases {
		_, err := ParseFEN(tc.fen)
		var pe *ParseError
		if !errors.As(err, &pe) || !strings.Contains(pe.Reason, tc.reason) {
			t.Fatalf("ParseFEN(%q) err = %v, want reason %q", tc.fen, err, tc.reason)
		}
	}
	if _, err := ParseFEN("4k3/8/8/3Pp3/8/8/8/4K3 w - e6 0 1"); err != nil {
		t.Fatalf("consistent en-passant target rejected: %v", err)
	}
}

func TestSANDisambiguation(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		move string
		want string
	}{
		{"file", "4k3/8/8/8/8/8/8/1N2KN2 w - - 0 1", "b1d2", "Nbd2"},
		{"rank", "4k3/8/8/8/8/N7/8/N3K3 w - - 0 1", "a1c2", "N1c2"},
		{"rank other", "4k3/8/8/8/8/N7/8/N3K3 w - - 0 1", "a3c2", "N3c2"},
		{"square", "4k3/8/8/8/8/Q7/8/Q1Q1K3 w - - 0 1", "a1b2", "Qa1b2"},
		{"square by rank", "4k3/8/8/8/8/Q7/8/Q1Q1K3 w - - 0 1", "a3b2", "Q3b2"},
		{"square by file", "4k3/8/8/8/8/Q7/8/Q1Q1K3 w - - 0 1", "c1b2", "Qcb2"},
		{"short castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"long castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"en passant", "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3", "e5f6", "exf6"},
		{"capture promotion", "1n2k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7b8q", "axb8=Q+"},
		{"plain knight", StartFEN, "g1f3", "Nf3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := mustFEN(t, tc.fen)
			m, err := p.DecodeMove(tc.move)
			if err != nil {
				t.Fatalf("DecodeMove(%s): %v", tc.move, err)
			}
			if got := p.SAN(m); got != tc.want {
				t.Fatalf("SAN(%s) = %s, want %s", tc.move, got, tc.want)
			}
			back, err := p.ParseSAN(tc.want)
			if err != nil || back != m {
				t.Fatalf("ParseSAN(%s) = %v, %v; want %v", tc.want, back, err, m)
			}
		})
	}
}

func TestParseSANVariants(t *testing.T) {
	p := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	m, err := p.ParseSAN("0-0")
	if err != nil || !m.Has(FlagCastleKingSide) {
		t.Fatalf("ParseSAN(0-0) = %v, %v", m, err)
	}
	if _, err := StartPosition().ParseSAN("Nf6"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("ParseSAN(Nf6) for white err = %v", err)
	}
	var pe *ParseError
	if _, err := StartPosition().ParseSAN("  "); !errors.As(err, &pe) {
		t.Fatalf("ParseSAN(blank) err = %v", err)
	}
}

func TestCoordinate(t *testing.T) {
	m, err := ParseCoordinate("e7e8q")
	if err != nil {
		t.Fatalf("ParseCoordinate: %v", err)
	}
	if m.From.String() != "e7" || m.To.String() != "e8" || m.Promotion != Queen {
		t.Fatalf("parsed %+v", m)
	}
	if m.String() != "e7e8q" {
		t.Fatalf("String() = %s", m.String())
	}
	for _, bad := range []string{"", "e2", "e2e9", "i2e4", "e7e8k", "e2e4e5"} {
		var pe *ParseError
		if _, err := ParseCoordinate(bad); !errors.As(err, &pe) {
			t.Fatalf("ParseCoordinate(%q) err = %v", bad, err)
		}
	}
}
