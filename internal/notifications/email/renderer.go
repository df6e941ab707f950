package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"photoalbum/internal/types"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// RenderedEmail holds the pre-rendered email content ready for transmission.
type RenderedEmail struct {
	Subject  string
	BodyHTML string
	BodyText string
}

// Message is the data rendered into a confirmation or rejection email.
type Message struct {
	Kind types.MailKind

	// Location is the s3:// URL of the accepted object (confirmation).
	Location string

	// Reason and ObjectKeys describe a rejection.
	Reason     string
	ObjectKeys []string

	ReferenceID string
}

// templateData is the struct passed into Go templates for rendering.
type templateData struct {
	Subject       string
	SenderName    string
	SenderAddress string
	Location      string
	Reason        string
	ObjectKeys    []string
	ReferenceID   string
}

var subjects = map[types.MailKind]string{
	types.MailConfirmation: "New image Upload",
	types.MailRejection:    "Image Upload Rejected",
}

// Renderer renders the embedded templates. It is safe for concurrent use.
type Renderer struct {
	htmlTemplates map[types.MailKind]*template.Template
	textTemplates map[types.MailKind]*texttemplate.Template
	sender        types.SenderIdentity
}

// NewRenderer parses the embedded templates. The sender identity appears in
// the "Sent from" block of every email.
func NewRenderer(sender types.SenderIdentity) (*Renderer, error) {
	r := &Renderer{
		htmlTemplates: make(map[types.MailKind]*template.Template),
		textTemplates: make(map[types.MailKind]*texttemplate.Template),
		sender:        sender,
	}

	baseHTML, err := templateFS.ReadFile("templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("renderer: failed to read base.html: %w", err)
	}

	for _, kind := range []types.MailKind{types.MailConfirmation, types.MailRejection} {
		name := string(kind)

		htmlContent, err := templateFS.ReadFile(fmt.Sprintf("templates/%s.html", name))
		if err != nil {
			return nil, fmt.Errorf("renderer: failed to read %s.html: %w", name, err)
		}
		htmlTmpl, err := template.New("base").Parse(string(baseHTML))
		if err != nil {
			return nil, fmt.Errorf("renderer: failed to parse base.html: %w", err)
		}
		if _, err := htmlTmpl.Parse(string(htmlContent)); err != nil {
			return nil, fmt.Errorf("renderer: failed to parse %s.html: %w", name, err)
		}
		r.htmlTemplates[kind] = htmlTmpl

		txtContent, err := templateFS.ReadFile(fmt.Sprintf("templates/%s.txt", name))
		if err != nil {
			return nil, fmt.Errorf("renderer: failed to read %s.txt: %w", name, err)
		}
		txtTmpl, err := texttemplate.New(name).Parse(string(txtContent))
		if err != nil {
			return nil, fmt.Errorf("renderer: failed to parse %s.txt: %w", name, err)
		}
		r.textTemplates[kind] = txtTmpl
	}

	return r, nil
}

// Sender returns the configured sender identity.
func (r *Renderer) Sender() types.SenderIdentity {
	return r.sender
}

// Render produces the subject and both bodies for msg.
func (r *Renderer) Render(msg Message) (*RenderedEmail, error) {
	htmlTmpl, ok := r.htmlTemplates[msg.Kind]
	if !ok {
		return nil, fmt.Errorf("renderer: no HTML template for mail kind %q", msg.Kind)
	}
	txtTmpl := r.textTemplates[msg.Kind]

	data := templateData{
		Subject:       subjects[msg.Kind],
		SenderName:    r.sender.Name,
		SenderAddress: r.sender.Address,
		Location:      msg.Location,
		Reason:        msg.Reason,
		ObjectKeys:    msg.ObjectKeys,
		ReferenceID:   msg.ReferenceID,
	}

	var htmlBuf bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("renderer: failed to render HTML for %q: %w", msg.Kind, err)
	}
	var txtBuf bytes.Buffer
	if err := txtTmpl.Execute(&txtBuf, data); err != nil {
		return nil, fmt.Errorf("renderer: failed to render text for %q: %w", msg.Kind, err)
	}

	return &RenderedEmail{
		Subject:  data.Subject,
		BodyHTML: htmlBuf.String(),
		BodyText: txtBuf.String(),
	}, nil
}
