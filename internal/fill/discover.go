// internal/fill/discover.go
package fill

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/applypilot/applypilot-cli/api/schemas"
)

// discoverScript runs in the page and captures every fillable control
// with its textual context and constraints, in document order, grouped
// by enclosing form. Hidden and button-like inputs are excluded.
const discoverScript = `(() => {
	const skipTypes = new Set(['hidden', 'submit', 'button', 'image', 'reset']);
	const esc = (s) => (window.CSS && CSS.escape) ? CSS.escape(s) : s.replace(/([^a-zA-Z0-9_-])/g, '\\$1');

	const selectorFor = (el) => {
		if (el.id) return '#' + esc(el.id);
		const tag = el.tagName.toLowerCase();
		if (el.name) {
			const scoped = tag + '[name="' + el.name.replace(/"/g, '\\"') + '"]';
			if (document.querySelectorAll(scoped).length === 1) return scoped;
		}
		const path = [];
		let n = el;
		while (n && n.nodeType === 1 && n !== document.body) {
			let i = 1, sib = n;
			while ((sib = sib.previousElementSibling)) {
				if (sib.tagName === n.tagName) i++;
			}
			path.unshift(n.tagName.toLowerCase() + ':nth-of-type(' + i + ')');
			n = n.parentElement;
		}
		return path.join(' > ');
	};

	const labelFor = (el) => {
		if (el.labels && el.labels.length) return el.labels[0].textContent.trim();
		if (el.id) {
			const lab = document.querySelector('label[for="' + esc(el.id) + '"]');
			if (lab) return lab.textContent.trim();
		}
		const wrap = el.closest('label');
		return wrap ? wrap.textContent.trim() : '';
	};

	const nearbyText = (el) => {
		const box = el.closest('div, fieldset, li, td') || el.parentElement;
		if (!box) return '';
		return (box.textContent || '').trim().replace(/\s+/g, ' ').slice(0, 200);
	};

	const dataAttrs = (el) => {
		const out = {};
		for (const a of el.attributes) {
			if (a.name.startsWith('data-') || a.name === 'autocomplete') out[a.name] = a.value;
		}
		return out;
	};

	const visible = (el) => {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};

	const results = [];
	const controls = document.querySelectorAll('input, select, textarea, [contenteditable="true"]');
	for (const el of controls) {
		const tag = el.tagName.toLowerCase();
		const type = (el.getAttribute('type') || '').toLowerCase();
		if (tag === 'input' && skipTypes.has(type)) continue;
		if (el.disabled || el.readOnly) continue;
		if (!visible(el)) continue;

		const form = el.closest('form');
		const entry = {
			selector: selectorFor(el),
			tagName: tag,
			inputType: tag === 'input' ? (type || 'text') : (el.hasAttribute('contenteditable') ? 'contenteditable' : ''),
			name: el.name || '',
			id: el.id || '',
			placeholder: el.getAttribute('placeholder') || '',
			labelText: labelFor(el),
			ariaLabel: el.getAttribute('aria-label') || '',
			classList: el.className && el.className.baseVal === undefined ? el.className : '',
			nearbyText: nearbyText(el),
			dataAttrs: dataAttrs(el),
			required: el.required || el.getAttribute('aria-required') === 'true',
			maxLength: (el.maxLength && el.maxLength > 0) ? el.maxLength : 0,
			pattern: el.getAttribute('pattern') || '',
			formSelector: form ? selectorFor(form) : '',
			groupName: (tag === 'input' && type === 'radio') ? el.name : '',
			options: tag === 'select'
				? Array.from(el.options).map(o => ({value: o.value, text: o.textContent.trim(), disabled: o.disabled}))
				: []
		};
		results.push(entry);
	}
	return results;
})()`

// DiscoverElements captures the page's fillable controls in document
// order and buckets each into its field kind.
func DiscoverElements(ctx context.Context, session schemas.Session) ([]schemas.Element, error) {
	raw, err := session.ExecuteScript(ctx, discoverScript)
	if err != nil {
		return nil, fmt.Errorf("element discovery failed: %w", err)
	}

	var elements []schemas.Element
	if err := jsoniter.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("failed to decode discovered elements: %w", err)
	}
	for i := range elements {
		elements[i].Kind = kindOf(&elements[i])
	}
	return elements, nil
}

// kindOf buckets a raw discovered control into its FieldKind.
func kindOf(el *schemas.Element) schemas.FieldKind {
	switch strings.ToLower(el.TagName) {
	case "select":
		return schemas.KindSelect
	case "textarea":
		return schemas.KindTextLike
	case "input":
		switch strings.ToLower(el.InputType) {
		case "radio":
			return schemas.KindChoiceGroup
		case "checkbox":
			return schemas.KindCheckbox
		case "file":
			return schemas.KindFileUpload
		default:
			return schemas.KindTextLike
		}
	default:
		if strings.EqualFold(el.InputType, "contenteditable") {
			return schemas.KindEditableRegion
		}
		return schemas.KindTextLike
	}
}

// groupByForm partitions elements by their enclosing form, preserving
// document order of forms and of elements within each form. Orphan
// controls form a trailing pseudo-group.
func groupByForm(elements []schemas.Element) [][]schemas.Element {
	var order []string
	groups := make(map[string][]schemas.Element)
	for _, el := range elements {
		key := el.FormSelector
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], el)
	}

	out := make([][]schemas.Element, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}
