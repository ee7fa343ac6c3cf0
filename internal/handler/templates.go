package handler

import "html/template"

var homeTemplate = template.Must(template.New("home").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>linkdrop</title>
  <style>
    body { font-family: sans-serif; max-width: 600px; margin: 2rem auto; color: #333; }
    input { display: block; width: 100%; margin-bottom: 1rem; padding: .5rem; box-sizing: border-box; }
    input[type=submit] { background: #e25f24; color: #fff; border: none; cursor: pointer; width: auto; padding: .5rem 1.5rem; }
    .sep { text-align: center; color: #888; margin: .5rem 0 1rem; }
    .ttl { color: #666; font-size: .9rem; }
  </style>
</head>
<body>
  <h2>Short link generator</h2>
  <form action="/upload" method="post" enctype="multipart/form-data">
    <input name="url" type="url" placeholder="Paste long URL here...">
    <div class="sep">&mdash; OR &mdash;</div>
    <input type="file" name="file">
    <input name="code" type="text" placeholder="Optional custom code">
    <input type="submit" value="Submit">
  </form>
  <p class="ttl">Links expire {{.TTL}} seconds after creation.</p>
</body>
</html>
`))

var adminTemplate = template.Must(template.New("admin").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>linkdrop admin</title>
  <style>
    body { font-family: sans-serif; margin: 2rem; color: #333; }
    table { border-collapse: collapse; }
    th, td { border: 1px solid #ccc; padding: .4rem .8rem; text-align: left; }
    .countdown { font-family: monospace; }
  </style>
</head>
<body>
  <h1>Admin</h1>
  <form>
    <input name="q" placeholder="Search" value="{{.Query}}">
    <input type="submit" value="Search">
  </form>
  <table>
    <tr><th>Code</th><th>Target</th><th>Created</th><th>Expires In</th><th>Hits</th></tr>
    {{range .Rows}}
    <tr>
      <td>{{.Code}}</td>
      <td>{{.Target}}</td>
      <td>{{.Created}}</td>
      <td><span class="countdown" data-expiry="{{.SecondsLeft}}">{{.SecondsLeft}}s</span></td>
      <td><span class="hits" data-code="{{.Code}}">{{.Hits}}</span></td>
    </tr>
    {{end}}
  </table>
  <script>
    document.querySelectorAll('.countdown').forEach(span => {
      let t = parseInt(span.dataset.expiry);
      const i = setInterval(() => {
        if (t <= 1) { span.innerText = 'expired'; clearInterval(i); }
        else { t -= 1; span.innerText = t + 's'; }
      }, 1000);
    });
    setInterval(() => {
      document.querySelectorAll('.hits').forEach(el => {
        fetch('/api/metadata/' + encodeURIComponent(el.dataset.code))
          .then(res => res.json())
          .then(data => { if (data.hits !== undefined) el.innerText = data.hits; });
      });
    }, 3000);
  </script>
</body>
</html>
`))
