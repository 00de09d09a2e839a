package provisioning

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/Thamike9/MQTT-Sensor/internal/credentials"
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

const formTemplate = `<!DOCTYPE html>
<html>
<head>
<title>{{.APName}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
<h1>{{.APName}}</h1>
<form method="POST" action="/save">
<label>WiFi SSID</label><br><input name="ssid"><br>
<label>WiFi Passphrase</label><br><input name="passphrase" type="password"><br>
<label>MQTT Server</label><br><input name="server" maxlength="40" value="{{.Record.BrokerAddress}}"><br>
<label>MQTT Username</label><br><input name="user" maxlength="40" value="{{.Record.BrokerUser}}"><br>
<label>MQTT Password</label><br><input name="password" maxlength="40" value="{{.Record.BrokerPassword}}"><br>
<label>MQTT Topic</label><br><input name="topic" maxlength="64" value="{{.Record.PublishTopic}}"><br>
<label>Device ID</label><br><input name="deviceid" maxlength="40" value="{{.Record.DeviceID}}"><br>
<button type="submit">Save</button>
</form>
</body>
</html>
`

var formPage = template.Must(template.New("portal").Parse(formTemplate))

type formData struct {
	APName string
	Record credentials.Record
}

// submission is one completed portal form.
type submission struct {
	ssid string
	psk  string
	rec  credentials.Record
}

// portalForm serves the provisioning form, pre-filled with the current
// record, and hands the first submission to the portal.
type portalForm struct {
	apName  string
	current credentials.Record
	submits chan submission
	logger  logger.Logger
}

func (f *portalForm) register(mux *http.ServeMux) {
	mux.HandleFunc("/", f.handleForm)
	mux.HandleFunc("/save", f.handleSave)
}

func (f *portalForm) handleForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formPage.Execute(w, formData{APName: f.apName, Record: f.current}); err != nil {
		f.logger.Error("Failed to render portal form: %v", err)
	}
}

func (f *portalForm) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	sub := submission{
		ssid: r.PostFormValue("ssid"),
		psk:  r.PostFormValue("passphrase"),
		rec: credentials.Record{
			BrokerAddress:  r.PostFormValue("server"),
			BrokerUser:     r.PostFormValue("user"),
			BrokerPassword: r.PostFormValue("password"),
			PublishTopic:   r.PostFormValue("topic"),
			DeviceID:       r.PostFormValue("deviceid"),
		}.Clamped(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintln(w, "<html><body>Saved. The device is joining your network.</body></html>")

	// Only the first submission counts; later ones are dropped.
	select {
	case f.submits <- sub:
	default:
	}
}
