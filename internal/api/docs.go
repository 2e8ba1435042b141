package api

const (
	apiTitle   = "FPL e2e runner API"
	apiVersion = "1.0.0"
)

// docsHTML renders the OpenAPI reference with a bar of shortcuts to the run
// endpoints a person checking on a suite usually wants first.
const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="referrer" content="same-origin" />
  <meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no" />
  <title>` + apiTitle + `</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
  <style>
    .runs-bar { display: flex; gap: 16px; align-items: center; height: 36px; padding: 0 16px;
      background: #161b22; border-bottom: 1px solid #30363d;
      font: 500 12px -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; }
    .runs-bar span { color: #c9d1d9; margin-right: auto; }
    .runs-bar a { color: #58a6ff; text-decoration: none; }
  </style>
</head>
<body style="height: 100vh; margin: 0; display: flex; flex-direction: column;">
  <nav class="runs-bar">
    <span>` + apiTitle + `</span>
    <a href="/api/v1/runs">Recent runs</a>
    <a href="/api/v1/features">Features</a>
    <a href="/health">Health</a>
  </nav>
  <div style="flex: 1; min-height: 0;">
    <elements-api
      apiDescriptionUrl="/openapi.json"
      router="hash"
      layout="sidebar"
      tryItCredentialsPolicy="same-origin"
      darkMode
    />
  </div>
</body>
</html>`
