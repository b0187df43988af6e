package monitor

import (
	"net/http"
	"os"

	"track-review-api/config"

	"github.com/gin-gonic/gin"
)

// RegisterMonitorPage mounts a small operator status page plus a token-gated
// log viewer.
func RegisterMonitorPage(router *gin.Engine) {
	router.GET("/monitor", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(monitorHTML))
	})

	router.GET("/logs", func(c *gin.Context) {
		token := os.Getenv("MONITOR_TOKEN")
		if token == "" || c.Query("token") != token {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		logData, err := os.ReadFile(config.LogFilePath())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to read log"})
			return
		}

		c.Data(http.StatusOK, "text/plain; charset=utf-8", logData)
	})
}

const monitorHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>Track Review Monitor</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      background: #101014;
      color: #e0e0e0;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      min-height: 100vh;
      padding: 20px;
    }
    h1 { font-size: 1.4rem; margin-bottom: 16px; }
    .card {
      background: #1a1a22;
      border-radius: 8px;
      padding: 16px;
      margin-bottom: 16px;
    }
    .ok { color: #5dd39e; }
    .down { color: #e85d75; }
    pre {
      white-space: pre-wrap;
      font-size: 0.8rem;
      max-height: 400px;
      overflow-y: auto;
    }
  </style>
</head>
<body>
  <h1>Track Review API</h1>
  <div class="card">
    <div>Status: <span id="status" class="down">checking...</span></div>
    <div>Last check: <span id="checked">-</span></div>
  </div>
  <div class="card">
    <h1>Recent logs</h1>
    <pre id="logs">Provide ?token=... to view logs.</pre>
  </div>
  <script>
    const params = new URLSearchParams(window.location.search);
    function fetchStatus() {
      fetch('/api/v1/health')
        .then(r => r.json())
        .then(() => {
          document.getElementById('status').textContent = 'online';
          document.getElementById('status').className = 'ok';
        })
        .catch(() => {
          document.getElementById('status').textContent = 'offline';
          document.getElementById('status').className = 'down';
        })
        .finally(() => {
          document.getElementById('checked').textContent = new Date().toLocaleTimeString();
        });
    }
    function fetchLogs() {
      const token = params.get('token');
      if (!token) return;
      fetch('/logs?token=' + encodeURIComponent(token))
        .then(r => r.text())
        .then(text => {
          const lines = text.trim().split('\n');
          document.getElementById('logs').textContent = lines.slice(-200).join('\n');
        })
        .catch(() => {});
    }
    fetchStatus();
    fetchLogs();
    setInterval(fetchStatus, 5000);
    setInterval(fetchLogs, 15000);
  </script>
</body>
</html>`
