package rules

import (
	"sync"

	"github.com/corentings/chess/v2/opening"

	"github.com/park285/voice-chess/internal/domain"
)

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

func ecoCatalog() *opening.BookECO {
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	return ecoBook
}

// Opening names the deepest catalogued line the moves so far follow. It is
// zero when the game left book immediately or did not start from the initial
// position.
func (g *Game) Opening() domain.Opening {
	if !g.fromStart || len(g.game.Moves()) == 0 {
		return domain.Opening{}
	}
	book := ecoCatalog()
	if book == nil {
		return domain.Opening{}
	}
	if eco := book.Find(g.game.Moves()); eco != nil {
		return domain.Opening{Code: eco.Code(), Title: eco.Title()}
	}
	return domain.Opening{}
}
