package config

import (
	"github.com/JakeFAU/flat-crawler/internal/adapter"
	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// DefaultTargets is the built-in target list used when none is configured.
func DefaultTargets() []crawler.Target {
	const (
		immoscout      = "www.immobilienscout24.de"
		immowelt       = "www.immowelt.de"
		sueddeutsche   = "immobilienmarkt.sueddeutsche.de"
		wggesucht      = "www.wg-gesucht.de"
		wohnungsboerse = "www.wohnungsboerse.net"
		boersePath     = "/searches/index/marketing_type:miete/object_type:1/country:de/minrooms:1/state:2/cities:"
	)
	t := func(city crawler.City, host, path, adapterID string, enc crawler.Encoding) crawler.Target {
		return crawler.Target{Host: host, Path: path, City: city, Encoding: enc, Adapter: adapterID, Fetch: crawler.FetchHTTP}
	}
	utf8, latin1 := crawler.EncodingUTF8, crawler.EncodingLatin1

	return []crawler.Target{
		t(crawler.Lindenberg, immoscout, "/Suche/de/bayern/lindau-bodensee-kreis/lindenberg-im-allgaeu/haus-kaufen", adapter.IDImmoScoutHouses, utf8),
		t(crawler.Munich, immoscout, "/Suche/S-2/P-1/Wohnung-Miete/Bayern/Muenchen?pagerReporting=true", adapter.IDImmoScout, utf8),
		t(crawler.Wuerzburg, immoscout, "/Suche/S-2/P-1/Wohnung-Miete/Bayern/Wuerzburg?pagerReporting=true", adapter.IDImmoScout, utf8),
		t(crawler.Augsburg, immoscout, "/Suche/S-2/P-1/Wohnung-Miete/Bayern/Augsburg?pagerReporting=true", adapter.IDImmoScout, utf8),
		t(crawler.Kempten, immoscout, "/Suche/S-2/P-1/Wohnung-Miete/Bayern/Kempten-Allgaeu?pagerReporting=true", adapter.IDImmoScout, utf8),

		t(crawler.Munich, immowelt, "/liste/muenchen/wohnungen/mieten?sort=relevanz", adapter.IDImmowelt, utf8),
		t(crawler.Wuerzburg, immowelt, "/liste/wuerzburg/wohnungen/mieten?sort=relevanz", adapter.IDImmowelt, utf8),
		t(crawler.Augsburg, immowelt, "/liste/augsburg/wohnungen/mieten?sort=relevanz", adapter.IDImmowelt, utf8),
		t(crawler.Kempten, immowelt, "/liste/kempten-allgaeu/wohnungen/mieten?sort=relevanz", adapter.IDImmowelt, utf8),

		t(crawler.Munich, sueddeutsche, "/Angebote/mieten/Wohnung-Stadt_Muenchen", adapter.IDSueddeutsche, latin1),
		t(crawler.Wuerzburg, sueddeutsche, "/Angebote/mieten/Wohnung-Stadt_Wuerzburg", adapter.IDSueddeutsche, latin1),

		t(crawler.Munich, wggesucht, "/wohnungen-in-Muenchen.90.2.0.0.html", adapter.IDWGGesucht, utf8),
		t(crawler.Wuerzburg, wggesucht, "/wohnungen-in-Wuerzburg.141.2.0.0.html", adapter.IDWGGesucht, utf8),
		t(crawler.Augsburg, wggesucht, "/wohnungen-in-Augsburg.2.2.0.0.html", adapter.IDWGGesucht, utf8),
		t(crawler.Kempten, wggesucht, "/wohnungen-in-Kempten-Allgaeu.70.2.0.0.html", adapter.IDWGGesucht, utf8),

		t(crawler.Munich, wohnungsboerse, boersePath+"2091", adapter.IDWohnungsboerse, utf8),
		t(crawler.Wuerzburg, wohnungsboerse, boersePath+"2772", adapter.IDWohnungsboerse, utf8),
		t(crawler.Augsburg, wohnungsboerse, boersePath+"1231", adapter.IDWohnungsboerse, utf8),
		t(crawler.Kempten, wohnungsboerse, boersePath+"1879", adapter.IDWohnungsboerse, utf8),
	}
}
