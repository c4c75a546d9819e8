package research

// loginElementsScript collects anything that looks like part of a login flow.
const loginElementsScript = `(() => {
  const pick = (el) => ({
    tagName: el.tagName || '',
    text: (el.textContent || '').trim().substring(0, 100),
    id: el.id || '',
    className: typeof el.className === 'string' ? el.className : '',
    type: el.type || '',
    name: el.name || ''
  });
  const elements = { loginButtons: [], usernameInputs: [], passwordInputs: [], forms: [] };

  document.querySelectorAll('button, a, input[type="submit"]').forEach(el => {
    const text = (el.textContent || '').toLowerCase();
    const value = (el.value || '').toLowerCase();
    if (text.includes('login') || text.includes('sign in') || value.includes('login')) {
      elements.loginButtons.push(pick(el));
    }
  });

  document.querySelectorAll('input').forEach(el => {
    const type = (el.type || '').toLowerCase();
    const name = (el.name || '').toLowerCase();
    const id = (el.id || '').toLowerCase();
    const placeholder = (el.placeholder || '').toLowerCase();
    if (type === 'text' || type === 'email' ||
        name.includes('user') || name.includes('email') ||
        id.includes('user') || id.includes('email') ||
        placeholder.includes('user') || placeholder.includes('email')) {
      elements.usernameInputs.push(pick(el));
    }
    if (type === 'password') {
      elements.passwordInputs.push(pick(el));
    }
  });

  document.querySelectorAll('form').forEach(el => {
    elements.forms.push({
      action: el.action || '',
      method: el.method || '',
      id: el.id || '',
      className: typeof el.className === 'string' ? el.className : ''
    });
  });

  return elements;
})()`

// serverElementsScript collects elements mentioning servers or their state.
const serverElementsScript = `(() => {
  const elements = { serverCards: [], serverButtons: [], serverStatus: [] };
  document.querySelectorAll('*').forEach(el => {
    const text = (el.textContent || '').toLowerCase();
    const className = (typeof el.className === 'string' ? el.className : '').toLowerCase();
    const id = (el.id || '').toLowerCase();
    const entry = {
      tagName: el.tagName || '',
      text: (el.textContent || '').trim().substring(0, 100),
      id: el.id || '',
      className: typeof el.className === 'string' ? el.className : ''
    };
    if (text.includes('server') || className.includes('server') || id.includes('server')) {
      elements.serverCards.push(entry);
      if (el.tagName === 'BUTTON') {
        elements.serverButtons.push(entry);
      }
    }
    if (text.includes('online') || text.includes('offline') || text.includes('starting')) {
      elements.serverStatus.push(entry);
    }
  });
  return elements;
})()`
