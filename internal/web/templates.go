package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/jaminalder/codex-thud/internal/app"
	"github.com/jaminalder/codex-thud/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"pieceSymbol": func(p domain.Piece) string {
			switch p {
			case domain.Dwarf:
				return "d"
			case domain.Troll:
				return "T"
			case domain.Thudstone:
				return "O"
			default:
				return ""
			}
		},
		"directions": domain.AllDirections,
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Thud</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>.cell{display:inline-block;width:1.6em;height:1.6em;text-align:center;border:1px solid #999}.off{border-color:transparent}</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Thud</h1><form action="/game" method="post"><button>Create</button></form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div id="board" sse-swap="board">{{template "board" .}}</div>
</div>`))
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <p class="status">{{.Status}} &middot; dwarves {{.DwarfScore}} / trolls {{.TrollScore}}</p>
  {{range .Rows}}
  <div class="row">
    {{range .}}{{if .OnBoard}}<span class="cell" title="{{.X}},{{.Y}}">{{pieceSymbol .Piece}}</span>{{else}}<span class="cell off"></span>{{end}}{{end}}
  </div>
  {{end}}
  <form hx-post="/game/{{.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
    <select name="action">
      <option value="move">move</option>
      <option value="attack">attack</option>
      <option value="capture">capture</option>
    </select>
    from <input name="sx" size="2"> <input name="sy" size="2">
    to <input name="dx" size="2"> <input name="dy" size="2">
    {{range directions}}<label><input type="checkbox" name="dir" value="{{.}}">{{.}}</label>{{end}}
    <button type="submit">Play</button>
  </form>
</div>
`

type cellView struct {
	X, Y    int
	OnBoard bool
	Piece   domain.Piece
}

type boardView struct {
	ID         string
	Error      string
	Status     string
	DwarfScore int
	TrollScore int
	Rows       [][]cellView
}

// newBoardView lays the grid out top row first so the picture matches the coordinates.
func newBoardView(gs app.GameState, errMsg string) boardView {
	b := gs.Game.Board()
	raw := b.Raw()
	rows := make([][]cellView, 0, domain.Size)
	for y := domain.Size - 1; y >= 0; y-- {
		row := make([]cellView, domain.Size)
		for x := 0; x < domain.Size; x++ {
			_, err := domain.NewCoord(x, y)
			row[x] = cellView{X: x, Y: y, OnBoard: err == nil, Piece: raw[x][y]}
		}
		rows = append(rows, row)
	}
	dwarves, trolls := gs.Game.Score()
	return boardView{
		ID:         gs.ID,
		Error:      errMsg,
		Status:     statusLine(gs.Game),
		DwarfScore: dwarves,
		TrollScore: trolls,
		Rows:       rows,
	}
}

func statusLine(g domain.Game) string {
	phase := g.Phase()
	if r, ok := phase.Result(); ok {
		return "Game over: " + r.String()
	}
	if phase.Kind() == domain.PhasePostTrollMove {
		if phase.Attacked() {
			return "Trolls must capture"
		}
		return "Trolls may capture"
	}
	turn, _ := g.Turn()
	return "To move: " + turn.String()
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	v := app.NewID()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
	return v
}
