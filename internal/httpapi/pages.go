package httpapi

import "html/template"

// Server-rendered pages are deliberately tiny: a submission form and a status
// page that polls until the recording reaches a terminal state.

var formPage = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head><title>Voice Recorder</title></head>
<body>
  <h1>Leave a recording</h1>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <form method="post" action="/">
    <label for="tel">Phone number</label>
    <input type="tel" id="tel" name="tel" placeholder="123-456-7890" value="{{.Tel}}" required>
    <button type="submit">Call me now</button>
  </form>
</body>
</html>
`))

var recordingPage = template.Must(template.New("recording").Parse(`<!DOCTYPE html>
<html>
<head><title>Your recording</title></head>
<body>
  {{if .Complete}}
  <h1>Recording complete!</h1>
  <audio controls src="{{.PlaybackURL}}"></audio>
  {{else if .Failed}}
  <h1>Recording failed</h1>
  <p>We could not complete your call. Please try again.</p>
  <p><a href="/">Start over</a></p>
  {{else}}
  <h1>Calling you now&hellip;</h1>
  <p>Answer the call and speak after the greeting. This page refreshes itself when your recording is ready.</p>
  <script>
    (function poll() {
      setTimeout(function () {
        fetch("{{.StatusURL}}")
          .then(function (res) { return res.text(); })
          .then(function (status) {
            if (status !== "IN_PROGRESS") {
              window.location.reload();
            } else {
              poll();
            }
          })
          .catch(poll);
      }, 10000);
    })();
  </script>
  {{end}}
</body>
</html>
`))
