// internal/server/widget.go
package server

import (
	"net/http"
	"text/template"
)

// defaultWidgetContainer is the conventionally-named element the loader
// auto-mounts into when it exists on the embedding page at load time.
const defaultWidgetContainer = "visualization-widget-root"

// widgetLoader is the embeddable bootstrap script. It exposes one global
// entry point, initVisualizationWidget(elementId), and auto-initializes
// against the conventional container. The mounted widget talks to this
// server's widget API; rendering is up to the embedding page's bundle.
var widgetLoader = template.Must(template.New("widget").Parse(`(function () {
  "use strict";

  var API_BASE = "{{.APIBase}}";
  var SESSION_HEADER = "{{.SessionHeader}}";
  var sessionId = null;

  function request(method, path, body) {
    var headers = { "Content-Type": "application/json" };
    if (sessionId) headers[SESSION_HEADER] = sessionId;
    return fetch(API_BASE + path, {
      method: method,
      headers: headers,
      body: body ? JSON.stringify(body) : undefined
    }).then(function (res) {
      var sid = res.headers.get(SESSION_HEADER);
      if (sid) sessionId = sid;
      return res.json();
    });
  }

  window.initVisualizationWidget = function (elementId) {
    var container = document.getElementById(elementId);
    if (!container) {
      console.error("Element with id '" + elementId + "' not found");
      return null;
    }
    var widget = {
      container: container,
      send: function (message) { return request("POST", "/chat", { message: message }); },
      state: function () { return request("GET", "/state"); },
      select: function (index) { return request("POST", "/selection", { index: index }); },
      openMap: function (open) { return request("POST", "/panels/map", { open: open }); },
      openChart: function (open) { return request("POST", "/panels/chart", { open: open }); },
      history: function () { return request("GET", "/chat/history"); },
      clear: function () { return request("POST", "/chat/clear"); }
    };
    container.dispatchEvent(new CustomEvent("rideviz:mounted", { detail: widget }));
    return widget;
  };

  if (document.getElementById("{{.Container}}")) {
    window.initVisualizationWidget("{{.Container}}");
  }
})();
`))

type widgetLoaderData struct {
	APIBase       string
	SessionHeader string
	Container     string
}

// handleWidgetLoader serves the embed script for the widget shell.
func handleWidgetLoader(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_ = widgetLoader.Execute(w, widgetLoaderData{
			APIBase:       apiBase,
			SessionHeader: SessionHeader,
			Container:     defaultWidgetContainer,
		})
	}
}
