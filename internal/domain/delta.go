package domain

// DeltaType is the wire discriminator of a protocol delta.
type DeltaType string

const (
	DeltaTypeID     DeltaType = "id"
	DeltaTypeTitle  DeltaType = "title"
	DeltaTypeKind   DeltaType = "kind"
	DeltaTypeClear  DeltaType = "clear"
	DeltaTypeText   DeltaType = "text-delta"
	DeltaTypeFinish DeltaType = "finish"
	DeltaTypeError  DeltaType = "error"
)

// Delta is one unit of a synthesis stream. The set of implementations is
// closed: only types in this package satisfy it.
type Delta interface {
	Type() DeltaType
	sealed()
}

// IDDelta starts a new artifact.
type IDDelta struct {
	DocumentID string
}

// TitleDelta sets the artifact title.
type TitleDelta struct {
	DocumentID string
	Title      string
}

// KindDelta sets the artifact kind.
type KindDelta struct {
	DocumentID string
	Kind       ArtifactKind
}

// ClearDelta resets the artifact content.
type ClearDelta struct {
	DocumentID string
}

// TextDelta appends a fragment to the artifact content.
type TextDelta struct {
	DocumentID string
	Text       string
}

// FinishDelta ends a successful session.
type FinishDelta struct {
	DocumentID string
}

// ErrorDelta ends a failed session.
type ErrorDelta struct {
	DocumentID string
	Message    string
}

func (IDDelta) Type() DeltaType     { return DeltaTypeID }
func (TitleDelta) Type() DeltaType  { return DeltaTypeTitle }
func (KindDelta) Type() DeltaType   { return DeltaTypeKind }
func (ClearDelta) Type() DeltaType  { return DeltaTypeClear }
func (TextDelta) Type() DeltaType   { return DeltaTypeText }
func (FinishDelta) Type() DeltaType { return DeltaTypeFinish }
func (ErrorDelta) Type() DeltaType  { return DeltaTypeError }

func (IDDelta) sealed()     {}
func (TitleDelta) sealed()  {}
func (KindDelta) sealed()   {}
func (ClearDelta) sealed()  {}
func (TextDelta) sealed()   {}
func (FinishDelta) sealed() {}
func (ErrorDelta) sealed()  {}

// WireDelta is the JSON shape of a delta on the stream.
type WireDelta struct {
	Type       DeltaType `json:"type"`
	Content    string    `json:"content"`
	MessageID  string    `json:"messageId,omitempty"`
	DocumentID string    `json:"documentId,omitempty"`
}

// EncodeDelta converts a delta to its wire form.
func EncodeDelta(d Delta, messageID string) WireDelta {
	w := WireDelta{Type: d.Type(), MessageID: messageID}
	switch v := d.(type) {
	case IDDelta:
		w.Content = v.DocumentID
		w.DocumentID = v.DocumentID
	case TitleDelta:
		w.Content = v.Title
		w.DocumentID = v.DocumentID
	case KindDelta:
		w.Content = string(v.Kind)
		w.DocumentID = v.DocumentID
	case ClearDelta:
		w.DocumentID = v.DocumentID
	case TextDelta:
		w.Content = v.Text
		w.DocumentID = v.DocumentID
	case FinishDelta:
		w.DocumentID = v.DocumentID
	case ErrorDelta:
		w.Content = v.Message
		w.DocumentID = v.DocumentID
	}
	return w
}

// DecodeDelta converts a wire delta into its typed form. It returns false for
// unknown types and for kind deltas naming an unknown kind; consumers skip those.
func DecodeDelta(w WireDelta) (Delta, bool) {
	switch w.Type {
	case DeltaTypeID:
		id := w.Content
		if id == "" {
			id = w.DocumentID
		}
		return IDDelta{DocumentID: id}, true
	case DeltaTypeTitle:
		return TitleDelta{DocumentID: w.DocumentID, Title: w.Content}, true
	case DeltaTypeKind:
		k := ArtifactKind(w.Content)
		if !IsValidArtifactKind(k) {
			return nil, false
		}
		return KindDelta{DocumentID: w.DocumentID, Kind: k}, true
	case DeltaTypeClear:
		return ClearDelta{DocumentID: w.DocumentID}, true
	case DeltaTypeText:
		return TextDelta{DocumentID: w.DocumentID, Text: w.Content}, true
	case DeltaTypeFinish:
		return FinishDelta{DocumentID: w.DocumentID}, true
	case DeltaTypeError:
		return ErrorDelta{DocumentID: w.DocumentID, Message: w.Content}, true
	}
	return nil, false
}
