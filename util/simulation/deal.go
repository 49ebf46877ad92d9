package simulation

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"voyager.com/cardtable/cards"
	"voyager.com/cardtable/util/random"
)

// A session draws the center card and then two cards per joining player.
const drawsPerDeal = 3

// chi-square critical value for 51 degrees of freedom at p = 0.01
const chiSquareCritical = 77.386

type Result struct {
	Deals int
	// Hits counts how often each card was drawn at each position.
	Hits [drawsPerDeal]map[cards.Card]int
	// ChiSquare is the statistic per draw position against a uniform deck.
	ChiSquare [drawsPerDeal]float64
}

func (r Result) Uniform() bool {
	for _, x := range r.ChiSquare {
		if x > chiSquareCritical {
			return false
		}
	}
	return true
}

// Run shuffles numDeals decks and writes a per-position frequency report to out.
func Run(numDeals int, out io.Writer) (Result, error) {
	return run(numDeals, rand.NewSource(random.NewSeed()), out)
}

func run(numDeals int, source rand.Source, out io.Writer) (Result, error) {
	if numDeals <= 0 {
		return Result{}, errors.Errorf("num-deals must be positive, got %d", numDeals)
	}
	result := Result{Deals: numDeals}
	for pos := range result.Hits {
		result.Hits[pos] = make(map[cards.Card]int, cards.DeckSize)
	}

	deck := cards.NewDeck(source)
	for i := 0; i < numDeals; i++ {
		if i > 0 && i%100000 == 0 {
			fmt.Fprintf(out, "Deal %d\n", i)
		}
		deck.Shuffle()
		for pos := 0; pos < drawsPerDeal; pos++ {
			card, ok := deck.Pop()
			if !ok {
				return result, errors.Errorf("deck ran out after %d draws", pos)
			}
			result.Hits[pos][card]++
		}
	}

	expected := float64(numDeals) / cards.DeckSize
	for pos := range result.Hits {
		var chi float64
		for _, c := range cards.FullDeck() {
			d := float64(result.Hits[pos][c]) - expected
			chi += d * d / expected
		}
		result.ChiSquare[pos] = chi
	}

	report(result, expected, out)
	return result, nil
}

func report(result Result, expected float64, out io.Writer) {
	fmt.Fprintf(out, "%d deals completed\n\nResult:\n", result.Deals)
	for pos := range result.Hits {
		minHits, maxHits := math.MaxInt32, 0
		for _, c := range cards.FullDeck() {
			h := result.Hits[pos][c]
			if h < minHits {
				minHits = h
			}
			if h > maxHits {
				maxHits = h
			}
		}
		fmt.Fprintf(out, "Draw %d: expected %.1f per card, min %d, max %d, chi-square %.2f\n",
			pos+1, expected, minHits, maxHits, result.ChiSquare[pos])
	}
	if result.Uniform() {
		fmt.Fprintf(out, "Shuffle looks uniform (chi-square <= %.3f at p=0.01)\n", chiSquareCritical)
	} else {
		fmt.Fprintf(out, "Shuffle does NOT look uniform (chi-square > %.3f at p=0.01)\n", chiSquareCritical)
	}
}
