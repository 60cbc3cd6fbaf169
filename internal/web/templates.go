package web

import (
	"fmt"
	"html/template"
)

// billTypes are the expense categories offered by the new-bill form.
var billTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"euros": func(v float64) string { return fmt.Sprintf("%.2f €", v) },
}).Parse(`
{{define "header"}}<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Billed · {{.Title}}</title>
</head>
<body>
{{if .Session.Email}}<nav class="vertical-navbar">
  <a href="/bills" data-testid="icon-window">Notes de frais</a>
  <a href="/bills/new" data-testid="icon-mail">Nouvelle note</a>
  <form method="post" action="/logout"><button type="submit" id="layout-disconnect">Se déconnecter</button></form>
</nav>{{end}}
<main class="content">
{{end}}

{{define "footer"}}</main>
</body>
</html>
{{end}}

{{define "login"}}{{template "header" .}}
<h1>Billed</h1>
{{if .Err}}<p class="error" data-testid="error-message">{{.Err}}</p>{{end}}
<form method="post" action="/login" data-testid="form-login">
  <label for="email">Adresse e-mail</label>
  <input type="email" id="email" name="email" value="{{.Email}}" required>
  <label for="password">Mot de passe</label>
  <input type="password" id="password" name="password" required>
  <button type="submit" data-testid="login-button">Se connecter</button>
</form>
{{template "footer" .}}{{end}}

{{define "bills"}}{{template "header" .}}
<div class="content-header">
  <h1 class="content-title">{{.Title}}</h1>
  {{if not .Session.IsAdmin}}<form method="post" action="/bills">
    <button type="submit" data-testid="btn-new-bill">Nouvelle note de frais</button>
  </form>{{end}}
</div>
{{if .Err}}<p class="error" data-testid="error-message">{{.Err}}</p>{{end}}
<table id="example" class="table">
  <thead><tr><th>Type</th><th>Nom</th><th>Date</th><th>Montant</th><th>Statut</th><th>Actions</th></tr></thead>
  <tbody data-testid="tbody">
  {{range .Bills}}<tr>
    <td>{{.Type}}</td>
    <td>{{.Name}}</td>
    <td>{{.DateLabel}}</td>
    <td>{{euros .Amount}}</td>
    <td>{{.StatusLabel}}</td>
    <td><a href="?preview={{.FileURL}}" data-testid="icon-eye" data-bill-url="{{.FileURL}}">Voir</a></td>
  </tr>{{end}}
  </tbody>
</table>
{{if .Receipt}}<div class="modal" id="modaleFile" role="dialog">
  <h5>Justificatif</h5>
  <div class="bill-proof-container"><img src="{{.Receipt}}" alt="Bill"></div>
  <a href="?" class="close">Fermer</a>
</div>{{end}}
{{template "footer" .}}{{end}}

{{define "newbill"}}{{template "header" .}}
<h1 class="content-title">Envoyer une note de frais</h1>
{{range .Flash.Alerts}}<p class="alert" role="alert" data-testid="alert">{{.}}</p>{{end}}
{{range .Flash.Errors}}<p class="error" data-testid="error-message">{{.}}</p>{{end}}
<form method="post" action="/bills/new/{{.FormID}}/file" enctype="multipart/form-data" data-testid="form-file">
  <label for="file">Justificatif</label>
  <input type="file" id="file" name="file" accept=".jpg,.jpeg,.png" data-testid="file" required>
  <button type="submit">Téléverser</button>
  {{if .FileName}}<p data-testid="uploaded-file">{{.FileName}}</p>{{end}}
</form>
<form method="post" action="/bills/new/{{.FormID}}" data-testid="form-new-bill">
  <label for="expense-type">Type de dépense</label>
  <select id="expense-type" name="expense-type" data-testid="expense-type" required>
    {{$selected := .Form.Type}}{{range .Types}}<option{{if eq . $selected}} selected{{end}}>{{.}}</option>{{end}}
  </select>
  <label for="expense-name">Nom de la dépense</label>
  <input type="text" id="expense-name" name="expense-name" value="{{.Form.Name}}" data-testid="expense-name">
  <label for="datepicker">Date</label>
  <input type="date" id="datepicker" name="datepicker" value="{{.Form.Date}}" data-testid="datepicker" required>
  <label for="amount">Montant TTC</label>
  <input type="number" id="amount" name="amount" value="{{.Form.Amount}}" min="0" step="0.01" data-testid="amount" required>
  <label for="vat">TVA</label>
  <input type="number" id="vat" name="vat" value="{{.Form.VAT}}" min="0" step="0.01" data-testid="vat">
  <input type="number" id="pct" name="pct" value="{{.Form.Pct}}" min="0" max="100" step="1" placeholder="20" data-testid="pct">
  <label for="commentary">Commentaire</label>
  <textarea id="commentary" name="commentary" data-testid="commentary">{{.Form.Commentary}}</textarea>
  <button type="submit" id="btn-send-bill"{{if not .Uploaded}} disabled{{end}}>Envoyer</button>
</form>
{{template "footer" .}}{{end}}
`))
