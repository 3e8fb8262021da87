package afip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	gocache "github.com/patrickmn/go-cache"
)

// ErrTicketExpired el ticket de acceso (TA) leído ya venció; hay que renovarlo contra el WSAA.
var ErrTicketExpired = errors.New("ticket de acceso vencido")

// ticketMargin se descuenta del vencimiento para no usar un TA a punto de expirar.
const ticketMargin = 2 * time.Minute

// Ticket credenciales del WSAA (loginTicketResponse).
type Ticket struct {
	Token      string
	Sign       string
	Expiration time.Time
}

// TicketProvider entrega un ticket de acceso válido para el servicio "wsfe".
// La obtención y renovación contra el WSAA queda fuera de este servicio.
type TicketProvider interface {
	Ticket(ctx context.Context, production bool) (*Ticket, error)
}

// FileTicketProvider lee el TA.xml que deja el proceso de autenticación (un archivo por entorno)
// y lo mantiene en memoria hasta su vencimiento.
type FileTicketProvider struct {
	pathHomo string
	pathProd string
	cache    *gocache.Cache
	now      func() time.Time
}

// NewFileTicketProvider construye el provider con las rutas de homologación y producción.
func NewFileTicketProvider(pathHomo, pathProd string) *FileTicketProvider {
	return &FileTicketProvider{
		pathHomo: pathHomo,
		pathProd: pathProd,
		cache:    gocache.New(gocache.NoExpiration, 10*time.Minute),
		now:      time.Now,
	}
}

// Ticket devuelve el TA del entorno; relee el archivo cuando el cacheado expira.
func (p *FileTicketProvider) Ticket(_ context.Context, production bool) (*Ticket, error) {
	key, path := "wsfe-homo", p.pathHomo
	if production {
		key, path = "wsfe-prod", p.pathProd
	}
	if v, ok := p.cache.Get(key); ok {
		return v.(*Ticket), nil
	}

	t, err := ReadTicketFile(path)
	if err != nil {
		return nil, err
	}
	ttl := t.Expiration.Sub(p.now()) - ticketMargin
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: %s (expiró %s)", ErrTicketExpired, path, t.Expiration.Format(time.RFC3339))
	}
	p.cache.Set(key, t, ttl)
	return t, nil
}

// ReadTicketFile lee un loginTicketResponse del WSAA.
func ReadTicketFile(path string) (*Ticket, error) {
	if path == "" {
		return nil, fmt.Errorf("ruta del ticket de acceso no configurada")
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("leer ticket de acceso %s: %w", path, err)
	}
	return parseTicket(doc)
}

// ParseTicket decodifica un loginTicketResponse en memoria.
func ParseTicket(data []byte) (*Ticket, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("decodificar ticket de acceso: %w", err)
	}
	return parseTicket(doc)
}

func parseTicket(doc *etree.Document) (*Ticket, error) {
	token := doc.FindElement("//credentials/token")
	sign := doc.FindElement("//credentials/sign")
	exp := doc.FindElement("//header/expirationTime")
	if token == nil || sign == nil || exp == nil {
		return nil, fmt.Errorf("ticket de acceso incompleto: faltan token, sign o expirationTime")
	}
	expiration, err := time.Parse(time.RFC3339, strings.TrimSpace(exp.Text()))
	if err != nil {
		return nil, fmt.Errorf("expirationTime inválido: %w", err)
	}
	return &Ticket{
		Token:      strings.TrimSpace(token.Text()),
		Sign:       strings.TrimSpace(sign.Text()),
		Expiration: expiration,
	}, nil
}
