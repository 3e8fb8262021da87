package afip

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain/entity"
)

// ClientConfig configuración del cliente WSFEv1. Se inyecta en el constructor (sin globales).
type ClientConfig struct {
	CUIT     string
	URLHomo  string
	URLProd  string
	Timeout  time.Duration
	RetryMax int // reintentos para operaciones de solo lectura; FECAESolicitar nunca se reintenta
}

// Client implementa WSFEClientFactory sobre el WS SOAP de AFIP.
type Client struct {
	cfg     ClientConfig
	tickets TicketProvider
	reads   *retryablehttp.Client
	writes  *retryablehttp.Client
}

// NewClient construye el cliente. El timeout por defecto es generoso (60 s)
// ya que el WSFEv1 puede tardar varios segundos en responder.
func NewClient(cfg ClientConfig, tickets TicketProvider, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.URLHomo == "" {
		cfg.URLHomo = URLWSFEHomo
	}
	if cfg.URLProd == "" {
		cfg.URLProd = URLWSFEProd
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	retryLog := newRetryLogger(log)

	reads := retryablehttp.NewClient()
	reads.HTTPClient = httpClient
	reads.RetryMax = cfg.RetryMax
	reads.RetryWaitMin = 500 * time.Millisecond
	reads.RetryWaitMax = 5 * time.Second
	reads.CheckRetry = soapRetryPolicy
	reads.Logger = retryLog

	writes := retryablehttp.NewClient()
	writes.HTTPClient = httpClient
	writes.RetryMax = 0
	writes.CheckRetry = soapRetryPolicy
	writes.Logger = retryLog

	return &Client{cfg: cfg, tickets: tickets, reads: reads, writes: writes}
}

func (c *Client) url(production bool) string {
	if production {
		return c.cfg.URLProd
	}
	return c.cfg.URLHomo
}

// Session obtiene el ticket de acceso del entorno y abre una sesión.
func (c *Client) Session(ctx context.Context, production bool) (WSFESession, error) {
	t, err := c.tickets.Ticket(ctx, production)
	if err != nil {
		return nil, fmt.Errorf("wsfe: ticket de acceso: %w", err)
	}
	return &Session{
		client: c,
		url:    c.url(production),
		auth:   wsfeAuth{Token: t.Token, Sign: t.Sign, Cuit: c.cfg.CUIT},
	}, nil
}

// Dummy consulta el estado de los servidores (no requiere ticket).
func (c *Client) Dummy(ctx context.Context, production bool) (*DummyStatus, error) {
	var out feDummyResponse
	if err := call(ctx, c.reads, c.url(production), "FEDummy", &feDummy{Xmlns: wsfeNS}, &out); err != nil {
		return nil, err
	}
	return &DummyStatus{
		AppServer:  out.Result.AppServer,
		DbServer:   out.Result.DbServer,
		AuthServer: out.Result.AuthServer,
	}, nil
}

// ── Sesión ────────────────────────────────────────────────────────────────────

// Session acumula la solicitud de un comprobante y la envía con CAESolicitar.
type Session struct {
	client *Client
	url    string
	auth   wsfeAuth
	det    *feCAEDetRequest
	cab    feCabReq
}

// CompUltimoAutorizado devuelve el último número autorizado para (tipo, punto de venta).
func (s *Session) CompUltimoAutorizado(ctx context.Context, tipoCbte, puntoVta int) (int64, error) {
	var out feCompUltimoAutorizadoResponse
	body := &feCompUltimoAutorizado{Xmlns: wsfeNS, Auth: s.auth, PtoVta: puntoVta, CbteTipo: tipoCbte}
	if err := call(ctx, s.client.reads, s.url, "FECompUltimoAutorizado", body, &out); err != nil {
		return 0, err
	}
	if msg := joinErrs(out.Result.Errors); msg != "" {
		return 0, fmt.Errorf("wsfe: FECompUltimoAutorizado: %s", msg)
	}
	return out.Result.CbteNro, nil
}

// CrearFactura prepara la cabecera. El número debe estar resuelto: cbt_desde = cbt_hasta = número.
func (s *Session) CrearFactura(c *entity.Comprobante) error {
	if c == nil || c.CbteNro == nil {
		return fmt.Errorf("wsfe: comprobante sin número resuelto")
	}
	nro := *c.CbteNro
	s.cab = feCabReq{CantReg: 1, PtoVta: c.PuntoVta, CbteTipo: c.TipoCbte}
	s.det = &feCAEDetRequest{
		Concepto:               c.Concepto,
		DocTipo:                c.TipoDoc,
		DocNro:                 c.NroDoc,
		CbteDesde:              nro,
		CbteHasta:              nro,
		CbteFch:                c.FechaCbte,
		ImpTotal:               money(c.ImpTotal),
		ImpTotConc:             money(c.ImpTotConc),
		ImpNeto:                money(c.ImpNeto),
		ImpOpEx:                money(c.ImpOpEx),
		ImpTrib:                money(c.ImpTrib),
		ImpIVA:                 money(c.ImpIVA),
		FchServDesde:           c.FechaServDesde,
		FchServHasta:           c.FechaServHasta,
		FchVtoPago:             c.FechaVencPago,
		MonID:                  c.MonedaID,
		MonCotiz:               c.MonedaCtz.String(),
		CondicionIVAReceptorID: c.CondicionIVAReceptor,
	}
	return nil
}

// AgregarCmpAsoc agrega un comprobante asociado a la solicitud en curso.
func (s *Session) AgregarCmpAsoc(ref entity.CbteAsociado) error {
	if s.det == nil {
		return fmt.Errorf("wsfe: AgregarCmpAsoc antes de CrearFactura")
	}
	if s.det.CbtesAsoc == nil {
		s.det.CbtesAsoc = &feCbtesAsoc{}
	}
	s.det.CbtesAsoc.Items = append(s.det.CbtesAsoc.Items, feCbteAsoc{
		Tipo: ref.Tipo, PtoVta: ref.PtoVta, Nro: ref.Nro, Cuit: ref.Cuit, CbteFch: ref.Fecha,
	})
	return nil
}

// AgregarIva agrega un subtotal por alícuota a la solicitud en curso.
func (s *Session) AgregarIva(iva entity.AlicuotaIVA) error {
	if s.det == nil {
		return fmt.Errorf("wsfe: AgregarIva antes de CrearFactura")
	}
	if s.det.Iva == nil {
		s.det.Iva = &feIva{}
	}
	s.det.Iva.Items = append(s.det.Iva.Items, feAlicIva{
		ID: iva.ID, BaseImp: money(iva.BaseImp), Importe: money(iva.Importe),
	})
	return nil
}

// CAESolicitar envía la solicitud preparada. Nunca se reintenta: un reintento podría
// autorizar dos veces el mismo número o quemar uno nuevo.
func (s *Session) CAESolicitar(ctx context.Context) (*CAEResponse, error) {
	if s.det == nil {
		return nil, fmt.Errorf("wsfe: CAESolicitar sin comprobante preparado")
	}
	body := &feCAESolicitar{
		Xmlns: wsfeNS,
		Auth:  s.auth,
		Req:   feCAEReq{Cab: s.cab, Det: feDetReq{Items: []feCAEDetRequest{*s.det}}},
	}
	var out feCAESolicitarResponse
	if err := call(ctx, s.client.writes, s.url, "FECAESolicitar", body, &out); err != nil {
		return nil, err
	}

	res := &CAEResponse{ErrMsg: joinErrs(out.Result.Errors)}
	if len(out.Result.Det.Items) > 0 {
		det := out.Result.Det.Items[0]
		res.Resultado = strings.TrimSpace(det.Resultado)
		res.CAE = strings.TrimSpace(det.CAE)
		res.Vencimiento = strings.TrimSpace(det.CAEFchVto)
		res.Observaciones = obsMessages(det.Observaciones)
	} else {
		res.Resultado = strings.TrimSpace(out.Result.Cab.Resultado)
	}
	return res, nil
}

// CompConsultar busca un comprobante autorizado por tipo, punto de venta y número.
func (s *Session) CompConsultar(ctx context.Context, tipoCbte, puntoVta int, nro int64) (*ConsultaResponse, error) {
	body := &feCompConsultar{
		Xmlns: wsfeNS,
		Auth:  s.auth,
		Req:   feCompConsReq{CbteTipo: tipoCbte, CbteNro: nro, PtoVta: puntoVta},
	}
	var out feCompConsultarResponse
	if err := call(ctx, s.client.reads, s.url, "FECompConsultar", body, &out); err != nil {
		return nil, err
	}
	codes := lo.Map(out.Result.Errors, func(e wsfeErr, _ int) string {
		return strings.TrimSpace(e.Code)
	})
	res := &ConsultaResponse{ErrMsg: joinErrs(out.Result.Errors), ErrCodes: codes}
	if g := out.Result.Get; g != nil {
		res.Observaciones = obsMessages(g.Observaciones)
		res.Comprobante = g.toEntity()
	}
	return res, nil
}

func money(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

func obsMessages(obs []wsfeErr) []string {
	return lo.Map(obs, func(o wsfeErr, _ int) string {
		return fmt.Sprintf("%s: %s", strings.TrimSpace(o.Code), strings.TrimSpace(o.Msg))
	})
}

// ── Estructuras de request ────────────────────────────────────────────────────

type feDummy struct {
	XMLName xml.Name `xml:"FEDummy"`
	Xmlns   string   `xml:"xmlns,attr"`
}

type feCompUltimoAutorizado struct {
	XMLName  xml.Name `xml:"FECompUltimoAutorizado"`
	Xmlns    string   `xml:"xmlns,attr"`
	Auth     wsfeAuth `xml:"Auth"`
	PtoVta   int      `xml:"PtoVta"`
	CbteTipo int      `xml:"CbteTipo"`
}

type feCAESolicitar struct {
	XMLName xml.Name `xml:"FECAESolicitar"`
	Xmlns   string   `xml:"xmlns,attr"`
	Auth    wsfeAuth `xml:"Auth"`
	Req     feCAEReq `xml:"FeCAEReq"`
}

type feCAEReq struct {
	Cab feCabReq `xml:"FeCabReq"`
	Det feDetReq `xml:"FeDetReq"`
}

type feCabReq struct {
	CantReg  int `xml:"CantReg"`
	PtoVta   int `xml:"PtoVta"`
	CbteTipo int `xml:"CbteTipo"`
}

type feDetReq struct {
	Items []feCAEDetRequest `xml:"FECAEDetRequest"`
}

// feCAEDetRequest respeta el orden de elementos del XSD del WSFEv1.
type feCAEDetRequest struct {
	Concepto               int          `xml:"Concepto"`
	DocTipo                int          `xml:"DocTipo"`
	DocNro                 string       `xml:"DocNro"`
	CbteDesde              int64        `xml:"CbteDesde"`
	CbteHasta              int64        `xml:"CbteHasta"`
	CbteFch                string       `xml:"CbteFch,omitempty"`
	ImpTotal               string       `xml:"ImpTotal"`
	ImpTotConc             string       `xml:"ImpTotConc"`
	ImpNeto                string       `xml:"ImpNeto"`
	ImpOpEx                string       `xml:"ImpOpEx"`
	ImpTrib                string       `xml:"ImpTrib"`
	ImpIVA                 string       `xml:"ImpIVA"`
	FchServDesde           string       `xml:"FchServDesde,omitempty"`
	FchServHasta           string       `xml:"FchServHasta,omitempty"`
	FchVtoPago             string       `xml:"FchVtoPago,omitempty"`
	MonID                  string       `xml:"MonId"`
	MonCotiz               string       `xml:"MonCotiz"`
	CondicionIVAReceptorID int          `xml:"CondicionIVAReceptorId,omitempty"`
	CbtesAsoc              *feCbtesAsoc `xml:"CbtesAsoc,omitempty"`
	Iva                    *feIva       `xml:"Iva,omitempty"`
}

type feCbtesAsoc struct {
	Items []feCbteAsoc `xml:"CbteAsoc"`
}

type feCbteAsoc struct {
	Tipo    int    `xml:"Tipo"`
	PtoVta  int    `xml:"PtoVta"`
	Nro     int64  `xml:"Nro"`
	Cuit    string `xml:"Cuit,omitempty"`
	CbteFch string `xml:"CbteFch,omitempty"`
}

type feIva struct {
	Items []feAlicIva `xml:"AlicIva"`
}

type feAlicIva struct {
	ID      int    `xml:"Id"`
	BaseImp string `xml:"BaseImp"`
	Importe string `xml:"Importe"`
}

type feCompConsultar struct {
	XMLName xml.Name      `xml:"FECompConsultar"`
	Xmlns   string        `xml:"xmlns,attr"`
	Auth    wsfeAuth      `xml:"Auth"`
	Req     feCompConsReq `xml:"FeCompConsReq"`
}

type feCompConsReq struct {
	CbteTipo int   `xml:"CbteTipo"`
	CbteNro  int64 `xml:"CbteNro"`
	PtoVta   int   `xml:"PtoVta"`
}

// ── Estructuras de respuesta ──────────────────────────────────────────────────

type feDummyResponse struct {
	Result struct {
		AppServer  string `xml:"AppServer"`
		DbServer   string `xml:"DbServer"`
		AuthServer string `xml:"AuthServer"`
	} `xml:"FEDummyResult"`
}

type feCompUltimoAutorizadoResponse struct {
	Result struct {
		PtoVta   int       `xml:"PtoVta"`
		CbteTipo int       `xml:"CbteTipo"`
		CbteNro  int64     `xml:"CbteNro"`
		Errors   []wsfeErr `xml:"Errors>Err"`
	} `xml:"FECompUltimoAutorizadoResult"`
}

type feCAESolicitarResponse struct {
	Result struct {
		Cab struct {
			Resultado string `xml:"Resultado"`
		} `xml:"FeCabResp"`
		Det struct {
			Items []struct {
				CbteDesde     int64     `xml:"CbteDesde"`
				Resultado     string    `xml:"Resultado"`
				Observaciones []wsfeErr `xml:"Observaciones>Obs"`
				CAE           string    `xml:"CAE"`
				CAEFchVto     string    `xml:"CAEFchVto"`
			} `xml:"FECAEDetResponse"`
		} `xml:"FeDetResp"`
		Errors []wsfeErr `xml:"Errors>Err"`
	} `xml:"FECAESolicitarResult"`
}

type feCompConsultarResponse struct {
	Result struct {
		Get    *feResultGet `xml:"ResultGet"`
		Errors []wsfeErr    `xml:"Errors>Err"`
	} `xml:"FECompConsultarResult"`
}

type feResultGet struct {
	Concepto        int             `xml:"Concepto"`
	DocTipo         int             `xml:"DocTipo"`
	DocNro          string          `xml:"DocNro"`
	CbteDesde       int64           `xml:"CbteDesde"`
	CbteHasta       int64           `xml:"CbteHasta"`
	CbteFch         string          `xml:"CbteFch"`
	ImpTotal        xmlDecimal      `xml:"ImpTotal"`
	ImpTotConc      xmlDecimal      `xml:"ImpTotConc"`
	ImpNeto         xmlDecimal      `xml:"ImpNeto"`
	ImpOpEx         xmlDecimal      `xml:"ImpOpEx"`
	ImpTrib         xmlDecimal      `xml:"ImpTrib"`
	ImpIVA          xmlDecimal      `xml:"ImpIVA"`
	FchServDesde    string          `xml:"FchServDesde"`
	FchServHasta    string          `xml:"FchServHasta"`
	FchVtoPago      string          `xml:"FchVtoPago"`
	MonID           string          `xml:"MonId"`
	MonCotiz        xmlDecimal      `xml:"MonCotiz"`
	CbtesAsoc       []feCbteAsoc    `xml:"CbtesAsoc>CbteAsoc"`
	Iva             []feAlicIvaResp `xml:"Iva>AlicIva"`
	Observaciones   []wsfeErr       `xml:"Observaciones>Obs"`
	CodAutorizacion string          `xml:"CodAutorizacion"`
	EmisionTipo     string          `xml:"EmisionTipo"`
	FchVto          string          `xml:"FchVto"`
	FchProceso      string          `xml:"FchProceso"`
	Resultado       string          `xml:"Resultado"`
	PtoVta          int             `xml:"PtoVta"`
	CbteTipo        int             `xml:"CbteTipo"`
}

type feAlicIvaResp struct {
	ID      int        `xml:"Id"`
	BaseImp xmlDecimal `xml:"BaseImp"`
	Importe xmlDecimal `xml:"Importe"`
}

// xmlDecimal tolera elementos vacíos (se leen como cero).
type xmlDecimal struct {
	decimal.Decimal
}

func (d *xmlDecimal) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		d.Decimal = decimal.Zero
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	d.Decimal = v
	return nil
}

func (g *feResultGet) toEntity() *entity.ComprobanteConsultado {
	return &entity.ComprobanteConsultado{
		TipoCbte:        g.CbteTipo,
		PuntoVta:        g.PtoVta,
		CbteDesde:       g.CbteDesde,
		CbteHasta:       g.CbteHasta,
		Concepto:        g.Concepto,
		TipoDoc:         g.DocTipo,
		NroDoc:          g.DocNro,
		FechaCbte:       g.CbteFch,
		ImpTotal:        g.ImpTotal.Decimal,
		ImpTotConc:      g.ImpTotConc.Decimal,
		ImpNeto:         g.ImpNeto.Decimal,
		ImpOpEx:         g.ImpOpEx.Decimal,
		ImpTrib:         g.ImpTrib.Decimal,
		ImpIVA:          g.ImpIVA.Decimal,
		FechaServDesde:  g.FchServDesde,
		FechaServHasta:  g.FchServHasta,
		FechaVencPago:   g.FchVtoPago,
		MonedaID:        g.MonID,
		MonedaCtz:       g.MonCotiz.Decimal,
		Resultado:       g.Resultado,
		CodAutorizacion: g.CodAutorizacion,
		EmisionTipo:     g.EmisionTipo,
		FechaVto:        g.FchVto,
		FechaProceso:    g.FchProceso,
		IVAs: lo.Map(g.Iva, func(a feAlicIvaResp, _ int) entity.AlicuotaIVA {
			return entity.AlicuotaIVA{ID: a.ID, BaseImp: a.BaseImp.Decimal, Importe: a.Importe.Decimal}
		}),
		Asociados: lo.Map(g.CbtesAsoc, func(a feCbteAsoc, _ int) entity.CbteAsociado {
			return entity.CbteAsociado{Tipo: a.Tipo, PtoVta: a.PtoVta, Nro: a.Nro, Cuit: a.Cuit, Fecha: a.CbteFch}
		}),
	}
}
