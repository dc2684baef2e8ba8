package web

import (
	"html/template"

	"mindease/internal/prompt"
	"mindease/internal/transcript"
)

// pageTemplate renders the chat page. Human bubbles sit on the right, AI
// bubbles on the left.
var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Source Sans Pro", "Segoe UI", "Roboto", sans-serif; margin: 0; display: flex; }
main { flex: 1; max-width: 760px; margin: 0 auto; padding: 24px; }
aside { width: 240px; padding: 24px; background: #f0f2f6; min-height: 100vh; }
.chat-row { display: flex; margin: 5px; width: 100%; }
.row-reverse { flex-direction: row-reverse; }
.chat-bubble { border: 1px solid transparent; padding: 5px 10px; margin: 0px 7px; max-width: 70%; white-space: pre-wrap; }
.ai-bubble { background: #f7f9fc; color: #222; border-radius: 12px; }
.human-bubble { background: linear-gradient(135deg, #a1c4fd 0%, #c2e9fb 100%); color: #003049; border-radius: 20px; }
.chat-icon { border-radius: 5px; width: 32px; height: 32px; text-align: center; line-height: 32px; }
.error { color: #b00020; }
.caption { color: #666; font-size: 0.85em; }
form.chat { display: flex; gap: 8px; margin-top: 16px; }
form.chat input[type=text] { flex: 6; padding: 8px; }
</style>
</head>
<body>
{{if .ShowSidebar}}
<aside>
  <form method="post" action="/profile">
    <p><strong>About you</strong></p>
    <p><label>Name<br><input type="text" name="name" value="{{.Profile.Name}}"></label></p>
    <p><label>Mood<br>
      <select name="mood">
        {{range .Moods}}<option value="{{.}}"{{if eq . $.Profile.Mood}} selected{{end}}>{{.}}</option>{{end}}
      </select></label></p>
    <button type="submit">Save</button>
  </form>
  <form method="post" action="/new"><p><button type="submit">New conversation</button></p></form>
</aside>
{{end}}
<main>
  <h1>🧘 {{.Title}}</h1>
  <p>{{.Tagline}}</p>
  {{if .Greeting}}
  <div class="chat-row"><div class="chat-icon">🤖</div><div class="chat-bubble ai-bubble">&#8203;{{.Greeting}}</div></div>
  {{end}}
  {{range .Transcript}}
  <div class="chat-row {{if eq .Origin "human"}}row-reverse{{end}}">
    <div class="chat-icon">{{if eq .Origin "human"}}🙂{{else}}🤖{{end}}</div>
    <div class="chat-bubble {{if eq .Origin "human"}}human-bubble{{else}}ai-bubble{{end}}">&#8203;{{.Text}}</div>
  </div>
  {{end}}
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <form class="chat" method="post" action="/chat">
    <input type="text" name="message" placeholder="{{.Placeholder}}" autofocus>
    <button type="submit">Submit</button>
  </form>
  <p class="caption">Used {{.Tokens}} tokens · model {{.Model}}</p>
  {{if .Memory}}<details class="caption"><summary>Conversation memory</summary><pre>{{.Memory}}</pre></details>{{end}}
  {{if not .ShowSidebar}}<form method="post" action="/new"><button type="submit">New conversation</button></form>{{end}}
</main>
</body>
</html>`))

var moods = []string{"", "calm", "anxious", "sad", "stressed", "tired", "hopeful"}

type pageData struct {
	Title       string
	Tagline     string
	Placeholder string
	Greeting    string
	Transcript  []transcript.Message
	Error       string
	Tokens      int
	Model       string
	Memory      string
	ShowSidebar bool
	Profile     prompt.Profile
	Moods       []string
}
