package afip

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	soapNS       = "http://schemas.xmlsoap.org/soap/envelope/"
	wsfeNS       = "http://ar.gov.afip.dif.FEV1/"
	soapMaxBytes = 1 << 20
)

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	XmlnsS  string   `xml:"xmlns:soap,attr"`
	Body    soapBody `xml:"soap:Body"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soap:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type soapResponseEnvelope struct {
	Body struct {
		Fault *soapFault `xml:"Fault"`
		Inner []byte     `xml:",innerxml"`
	} `xml:"Body"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// FaultError SOAP Fault devuelto por el WS (token vencido, CUIT no autorizado, etc.).
type FaultError struct {
	Code   string
	String string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("SOAP Fault [%s]: %s", e.Code, e.String)
}

// Message texto del fault con el formato "codigo: mensaje" de los errores del WSFEv1.
func (e *FaultError) Message() string {
	code := strings.TrimSpace(e.Code)
	if i := strings.LastIndex(code, ":"); i >= 0 {
		code = code[i+1:]
	}
	if code == "" {
		return strings.TrimSpace(e.String)
	}
	return code + ": " + strings.TrimSpace(e.String)
}

// wsfeAuth bloque Auth común a todas las operaciones del WSFEv1.
type wsfeAuth struct {
	Token string `xml:"Token"`
	Sign  string `xml:"Sign"`
	Cuit  string `xml:"Cuit"`
}

// wsfeErr / wsfeObs elementos Err y Obs de las respuestas.
type wsfeErr struct {
	Code string `xml:"Code"`
	Msg  string `xml:"Msg"`
}

// joinErrs arma el mensaje con el formato "codigo: mensaje", uno por línea.
func joinErrs(errs []wsfeErr) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.TrimSpace(e.Code), strings.TrimSpace(e.Msg)))
	}
	return strings.Join(parts, "\n")
}

// ── Llamada ───────────────────────────────────────────────────────────────────

// call envía body como SOAPAction action y decodifica el contenido de soap:Body en out.
func call(ctx context.Context, hc *retryablehttp.Client, url, action string, body, out interface{}) error {
	payload, err := xml.Marshal(soapEnvelope{XmlnsS: soapNS, Body: soapBody{Content: body}})
	if err != nil {
		return fmt.Errorf("wsfe: serializar envelope: %w", err)
	}
	payload = append([]byte(xml.Header), payload...)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("wsfe: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", wsfeNS+action)

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("wsfe: timeout o cancelación en %s: %w", action, ctx.Err())
		}
		return fmt.Errorf("wsfe: llamada HTTP %s fallida: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, soapMaxBytes))
	if err != nil {
		return fmt.Errorf("wsfe: leer respuesta %s: %w", action, err)
	}

	var env soapResponseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("wsfe: respuesta %s no es SOAP (HTTP %d): %w", action, resp.StatusCode, err)
	}
	if f := env.Body.Fault; f != nil {
		return &FaultError{Code: f.FaultCode, String: f.FaultString}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("wsfe: %s respondió HTTP %d", action, resp.StatusCode)
	}
	if len(bytes.TrimSpace(env.Body.Inner)) == 0 {
		return fmt.Errorf("wsfe: respuesta %s vacía", action)
	}
	if err := xml.Unmarshal(env.Body.Inner, out); err != nil {
		return fmt.Errorf("wsfe: decodificar %s: %w", action, err)
	}
	return nil
}

// soapRetryPolicy reintenta errores de red y 502/503/504. HTTP 500 trae un SOAP Fault: no se reintenta.
func soapRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusInternalServerError {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
