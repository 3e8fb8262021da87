// Command wsfe opera el facturador desde la línea de comandos: autorizar, consultar,
// último número autorizado, estado de AFIP y emisión de tokens para la API.
package main

func main() {
	Execute()
}
