package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const indexHTML = `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Retencion</title>
    <meta name="description" content="Scoring de riesgo de abandono estudiantil">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        :root {
            --bg: #09090b;
            --bg-subtle: #18181b;
            --border: #27272a;
            --text: #fafafa;
            --text-secondary: #a1a1aa;
            --accent: #3b82f6;
        }
        body {
            font-family: -apple-system, 'Segoe UI', sans-serif;
            background: var(--bg);
            color: var(--text);
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
            font-size: 15px;
            line-height: 1.6;
        }
        .card {
            max-width: 520px;
            padding: 40px;
            border: 1px solid var(--border);
            border-radius: 12px;
            background: var(--bg-subtle);
        }
        h1 { font-size: 24px; margin-bottom: 8px; }
        p { color: var(--text-secondary); margin-bottom: 20px; }
        a.button {
            display: inline-block;
            padding: 10px 18px;
            background: var(--accent);
            color: var(--text);
            border-radius: 8px;
            text-decoration: none;
            font-weight: 500;
        }
        code {
            font-family: 'SF Mono', Menlo, monospace;
            font-size: 13px;
            background: var(--bg);
            padding: 2px 6px;
            border-radius: 4px;
        }
        ul { list-style: none; margin-top: 16px; }
        li { margin-bottom: 8px; color: var(--text-secondary); }
    </style>
</head>
<body>
    <div class="card">
        <h1>Retencion</h1>
        <p>Scoring de riesgo de abandono estudiantil e historial de intervenciones.</p>
        <a class="button" href="/dashboard">Abrir dashboard</a>
        <ul>
            <li><code>POST /api/predict</code> probabilidad de abandono</li>
            <li><code>POST /api/intervene</code> registrar intervencion</li>
            <li><code>GET /api/interventions</code> historial</li>
        </ul>
    </div>
</body>
</html>`

const dashboardHTML = `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Retencion · Dashboard</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        :root {
            --bg: #09090b;
            --bg-subtle: #18181b;
            --border: #27272a;
            --text: #fafafa;
            --text-secondary: #a1a1aa;
            --accent: #3b82f6;
            --green: #22c55e;
            --amber: #f59e0b;
            --red: #ef4444;
        }
        body {
            font-family: -apple-system, 'Segoe UI', sans-serif;
            background: var(--bg);
            color: var(--text);
            font-size: 14px;
            line-height: 1.5;
        }
        .container { max-width: 1100px; margin: 0 auto; padding: 32px 20px; }
        header { display: flex; justify-content: space-between; align-items: baseline; margin-bottom: 28px; }
        h1 { font-size: 20px; }
        .live { font-size: 12px; color: var(--text-secondary); }
        .live.connected { color: var(--green); }
        .grid { display: grid; grid-template-columns: 1fr 1fr; gap: 20px; }
        @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
        section {
            border: 1px solid var(--border);
            border-radius: 12px;
            background: var(--bg-subtle);
            padding: 24px;
        }
        h2 { font-size: 15px; margin-bottom: 16px; }
        label { display: block; font-size: 12px; color: var(--text-secondary); margin: 10px 0 4px; }
        input {
            width: 100%;
            padding: 8px 10px;
            border: 1px solid var(--border);
            border-radius: 6px;
            background: var(--bg);
            color: var(--text);
            font-size: 14px;
        }
        button {
            margin-top: 16px;
            padding: 9px 16px;
            background: var(--accent);
            border: none;
            border-radius: 8px;
            color: var(--text);
            font-size: 14px;
            font-weight: 500;
            cursor: pointer;
        }
        .result { margin-top: 16px; font-size: 22px; font-weight: 600; }
        .result.low { color: var(--green); }
        .result.mid { color: var(--amber); }
        .result.high { color: var(--red); }
        .entry {
            padding: 10px 0;
            border-bottom: 1px solid var(--border);
            font-size: 13px;
        }
        .entry:last-child { border-bottom: none; }
        .entry .who { font-weight: 600; }
        .entry .when { color: var(--text-secondary); float: right; }
        .empty { color: var(--text-secondary); font-size: 13px; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Retencion</h1>
            <span class="live" id="live">desconectado</span>
        </header>
        <div class="grid">
            <section>
                <h2>Prediccion de riesgo</h2>
                <label for="asistencia">Asistencia (%)</label>
                <input id="asistencia" type="number" value="75" step="0.1">
                <label for="notas">Notas promedio</label>
                <input id="notas" type="number" value="70" step="0.1">
                <label for="interacciones">Interacciones en plataforma</label>
                <input id="interacciones" type="number" value="5" step="0.1">
                <label for="semanas">Semanas registrado</label>
                <input id="semanas" type="number" value="12" step="1">
                <button onclick="predict()">Calcular</button>
                <div class="result" id="result"></div>
            </section>
            <section>
                <h2>Intervenciones recientes</h2>
                <div id="entries"><p class="empty">Sin intervenciones registradas.</p></div>
            </section>
        </div>
    </div>
    <script>
        async function predict() {
            const body = {
                asistencia_pct: parseFloat(document.getElementById('asistencia').value),
                notas_promedio: parseFloat(document.getElementById('notas').value),
                interacciones: parseFloat(document.getElementById('interacciones').value),
                semanas_registro: parseFloat(document.getElementById('semanas').value)
            };
            const el = document.getElementById('result');
            try {
                const res = await fetch('/api/predict', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify(body)
                });
                const data = await res.json();
                if (data.status !== 'ok') {
                    el.className = 'result';
                    el.textContent = data.message || 'error';
                    return;
                }
                const p = data.results[0].prob_abandono;
                el.className = 'result ' + (p < 0.3 ? 'low' : p < 0.6 ? 'mid' : 'high');
                el.textContent = (p * 100).toFixed(1) + '% riesgo de abandono';
            } catch (err) {
                el.className = 'result';
                el.textContent = 'error de red';
            }
        }

        function renderEntry(e) {
            const div = document.createElement('div');
            div.className = 'entry';
            const when = new Date(e.timestamp).toLocaleTimeString();
            div.innerHTML = '<span class="when">' + when + '</span>' +
                '<span class="who">' + (e.student || '?') + '</span> · ' +
                (e.action || '') + (e.message ? ' · ' + e.message : '');
            return div;
        }

        async function loadInterventions() {
            try {
                const res = await fetch('/api/interventions');
                const data = await res.json();
                if (data.status !== 'ok' || !data.interventions.length) return;
                const box = document.getElementById('entries');
                box.innerHTML = '';
                data.interventions.slice(-20).reverse().forEach(e => box.appendChild(renderEntry(e)));
            } catch (err) { /* retry on next refresh */ }
        }

        function connectFeed() {
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            const ws = new WebSocket(proto + '//' + location.host + '/ws');
            const live = document.getElementById('live');
            ws.onopen = () => { live.textContent = 'en vivo'; live.className = 'live connected'; };
            ws.onclose = () => {
                live.textContent = 'desconectado';
                live.className = 'live';
                setTimeout(connectFeed, 3000);
            };
            ws.onmessage = (msg) => {
                const evt = JSON.parse(msg.data);
                if (evt.type !== 'intervention') return;
                const box = document.getElementById('entries');
                const empty = box.querySelector('.empty');
                if (empty) empty.remove();
                box.prepend(renderEntry(evt.data));
            };
        }

        loadInterventions();
        connectFeed();
    </script>
</body>
</html>`

// indexPageHandler serves the landing page
func indexPageHandler(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, indexHTML)
}

// dashboardPageHandler serves the interactive dashboard
func dashboardPageHandler(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, dashboardHTML)
}
