package browser

import (
	"fmt"
	"strings"
)

// stealthScript returns the init script that suppresses the signals headless
// automation leaks into the page: navigator.webdriver, empty plugin lists,
// missing window.chrome, the permissions API shortcut and the SwiftShader
// WebGL vendor strings.
func stealthScript(langCode string) string {
	languages := fmt.Sprintf("['%s', 'en']", langCode)
	if strings.HasPrefix(langCode, "en") {
		languages = "['en-GB', 'en']"
	}

	return `
(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });

	Object.defineProperty(navigator, 'languages', { get: () => ` + languages + ` });

	Object.defineProperty(navigator, 'plugins', {
		get: () => [
			{ name: 'Chrome PDF Plugin' },
			{ name: 'Chrome PDF Viewer' },
			{ name: 'Native Client' },
		],
	});

	window.chrome = window.chrome || { runtime: {} };

	const originalQuery = window.navigator.permissions.query.bind(window.navigator.permissions);
	window.navigator.permissions.query = (parameters) =>
		parameters.name === 'notifications'
			? Promise.resolve({ state: Notification.permission })
			: originalQuery(parameters);

	const getParameter = WebGLRenderingContext.prototype.getParameter;
	WebGLRenderingContext.prototype.getParameter = function (parameter) {
		// UNMASKED_VENDOR_WEBGL / UNMASKED_RENDERER_WEBGL
		if (parameter === 37445) return 'Intel Inc.';
		if (parameter === 37446) return 'Intel Iris OpenGL Engine';
		return getParameter.call(this, parameter);
	};
})();
`
}
