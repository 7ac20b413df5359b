package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
)

func main() {
	fen := flag.String("fen", chess.StartFEN, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	repeat := flag.Int("repeat", 1, "Repeat perft N times for steadier timings")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}
	pos, err := chess.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseFEN error: %v\n", err)
		os.Exit(2)
	}

	if *divide {
		div := chess.Divide(pos, *depth)
		moves := make([]string, 0, len(div))
		var sum int64
		for m, n := range div {
			moves = append(moves, m)
			sum += n
		}
		sort.Strings(moves)
		for _, m := range moves {
			fmt.Printf("%s: %d\n", m, div[m])
		}
		fmt.Printf("Total: %d\n", sum)
		return
	}

	var total int64
	start := time.Now()
	for i := 0; i < *repeat; i++ {
		total += chess.Perft(pos, *depth)
	}
	elapsed := time.Since(start)
	nps := float64(total) / elapsed.Seconds()
	fmt.Printf("depth %d\tnodes %d\ttime %s\tnps %.0f\n", *depth, total/int64(*repeat), elapsed, nps)
}
